package server

import (
	"io"
	"net/http"
	"strconv"

	"FableStudio/logger"
	"FableStudio/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// UploadAssetHandler ingests an audio asset and returns its new id.
// Expected multipart form field: assetFile.
func (h *APIHandler) UploadAssetHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB max memory
		respondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("assetFile")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing 'assetFile' in form")
		return
	}
	defer file.Close()

	assetID := uuid.New().String()
	contentType := header.Header.Get("Content-Type")

	if err := storage.PutAsset(r.Context(), h.cfg.MinioBucket, assetID, file, header.Size, contentType); err != nil {
		logger.Error("Asset upload failed",
			logger.String("filename", header.Filename),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to store asset")
		return
	}

	logger.Info("Asset uploaded",
		logger.String("assetId", assetID),
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size))

	respondJSON(w, http.StatusOK, map[string]string{
		"assetId":  assetID,
		"filename": header.Filename,
	})
}

// StreamAssetHandler streams an asset's raw bytes.
func (h *APIHandler) StreamAssetHandler(w http.ResponseWriter, r *http.Request) {
	assetID := mux.Vars(r)["asset_id"]

	object, size, err := storage.FetchAsset(r.Context(), h.cfg.MinioBucket, assetID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Asset not found")
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("Error streaming asset", logger.String("assetId", assetID), logger.ErrorField(err))
	}
}
