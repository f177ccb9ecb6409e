package controllers

import (
	"errors"
	"net/http"

	"github.com/proteinapura/storefront/api/responses"
	"github.com/proteinapura/storefront/api/validators"
	"github.com/proteinapura/storefront/internal/media"
	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/proteinapura/storefront/pkg/logger"
)

// AdminUpload stores the multipart "file" field and answers {bucket, path, publicUrl}.
func AdminUpload(svc media.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}
		ctx := adminContext(r, logg)

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required").
				WithDetails(map[string]string{"file": "is required"}))
			return
		}
		defer file.Close()

		out, err := svc.Upload(ctx, media.UploadInput{
			Bucket:      r.FormValue("bucket"),
			Path:        r.FormValue("path"),
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, out)
	}
}

// AdminUploadURL issues a signed upload URL for {path, bucket?}.
func AdminUploadURL(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}
		ctx := adminContext(r, logg)

		var payload media.UploadURLInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out, err := svc.CreateUploadURL(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
