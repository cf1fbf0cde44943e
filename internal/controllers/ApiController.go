package controllers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/borkya1/smart-gallery/internal/identity"
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/services"
	"github.com/borkya1/smart-gallery/internal/store"
	"github.com/borkya1/smart-gallery/internal/structures"
)

const (
	multipartMemory   = 8 << 20
	defaultImageType  = "image/jpeg"
	imageCacheControl = "public, max-age=86400, immutable"
)

type ApiController struct {
	logger       providers.Logger
	resolver     identity.ResolverInterface
	uploads      services.UploadServiceInterface
	gallery      services.GalleryServiceInterface
	blobs        store.BlobStoreInterface
	images       providers.ImageCacheInterface
	maxBodyBytes int64
}

func NewApiController(conf *structures.Config, logger providers.Logger, resolver identity.ResolverInterface, uploads services.UploadServiceInterface, gallery services.GalleryServiceInterface, blobs store.BlobStoreInterface, images providers.ImageCacheInterface) *ApiController {
	return &ApiController{
		logger:       logger,
		resolver:     resolver,
		uploads:      uploads,
		gallery:      gallery,
		blobs:        blobs,
		images:       images,
		maxBodyBytes: int64(conf.Upload.MaxSizeMB) << 20,
	}
}

func (ac *ApiController) Upload(w http.ResponseWriter, r *http.Request) {
	who, err := ac.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, ac.logger, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, ac.maxBodyBytes)
	upload, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "A file field is required")
		return
	}

	result, err := ac.uploads.Upload(r.Context(), who, *upload)
	if err != nil {
		writeServiceError(w, ac.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func readUpload(r *http.Request) (*models.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &models.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (ac *ApiController) GetImages(w http.ResponseWriter, r *http.Request) {
	who, err := ac.resolver.RequireUser(r)
	if err != nil {
		writeServiceError(w, ac.logger, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	records, err := ac.gallery.Recent(r.Context(), who, limit)
	if err != nil {
		writeServiceError(w, ac.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Results: records})
}

func (ac *ApiController) Search(w http.ResponseWriter, r *http.Request) {
	who, err := ac.resolver.RequireUser(r)
	if err != nil {
		writeServiceError(w, ac.logger, r, err)
		return
	}

	records, err := ac.gallery.Search(r.Context(), who, r.URL.Query().Get("tag"))
	if err != nil {
		writeServiceError(w, ac.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Results: records})
}

// GetImage proxies stored image bytes. Served filenames are flat, so any path
// separator or dot segment is rejected before the blob store is asked.
func (ac *ApiController) GetImage(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" || filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		writeDetail(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	if blob, ok := ac.images.Get(filename); ok {
		writeImage(w, filename, blob)
		return
	}

	blob, err := ac.blobs.Get(r.Context(), ac.blobs.Key(filename))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Image not found")
			return
		}
		writeServiceError(w, ac.logger, r, models.NewInfrastructureError("read image", err))
		return
	}

	ac.images.Set(filename, blob)
	writeImage(w, filename, blob)
}

func writeImage(w http.ResponseWriter, filename string, blob *models.Blob) {
	contentType := blob.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(filename))
	}
	if contentType == "" {
		contentType = defaultImageType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", imageCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}
