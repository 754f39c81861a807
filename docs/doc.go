// Package docs provides generated OpenAPI documentation.
//
// Collate API
//
//	@title			Collate API
//	@version		1.0
//	@description	Multi-source document extraction and reconciliation API.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/collatehq/collate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/collate/serve.go -o ./swagger --parseDependency --parseInternal
