package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/collatehq/collate/internal/api"
	"github.com/collatehq/collate/internal/filetype"
	"github.com/collatehq/collate/internal/ir"
	"github.com/collatehq/collate/internal/source"
	"github.com/collatehq/collate/internal/svcctx"
)

// maxUploadBytes caps the multipart body. Scanned books run large; 200MB
// leaves headroom without letting one request exhaust memory.
const maxUploadBytes = 200 << 20

// ExtractEndpoint handles POST /extract, the main reconciliation entry
// point. It accepts one PDF or raster image as a multipart upload and
// returns the merged document.
type ExtractEndpoint struct{}

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// @Summary      Extract a document
// @Description  Runs every enabled extraction source over the upload and returns the reconciled result
// @Tags         extract
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF or image to extract"
// @Success      200  {object}  ir.Document
// @Failure      400  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty file upload")
		return
	}

	kind, err := filetype.Detect(header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		if errors.Is(err, filetype.ErrUnsupported) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "unrecognized upload: "+err.Error())
		return
	}

	pipeline := svcctx.PipelineFrom(r.Context())
	if pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}

	doc, _ := pipeline.Run(r.Context(), source.Input{
		Data:     data,
		Kind:     kind,
		Filename: header.Filename,
	})

	writeJSON(w, http.StatusOK, doc)
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract a PDF or image through the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var doc ir.Document
			if err := client.PostFile(cmd.Context(), "/extract", args[0], &doc); err != nil {
				return err
			}
			if api.GetOutputFormat() == api.OutputFormatJSON {
				return api.Output(doc)
			}
			fmt.Printf("Pages:    %d\n", doc.TotalPages)
			fmt.Printf("Coverage: %.1f%%\n", doc.OverallCoverage)
			fmt.Printf("Methods:  %v\n", doc.ExtractionMethods)
			return nil
		},
	}
}
