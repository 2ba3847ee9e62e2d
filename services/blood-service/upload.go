package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"blood-donation-backend/pkg/response"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const maxUploadSize = 10 << 20 // 10 MiB

func ensureBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := minioClient.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := minioClient.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("[OK] Created bucket %s", cfg.MinioBucket)
	}
	return nil
}

func uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing file field", err.Error())
		return
	}
	defer file.Close()

	objectName := uuid.New().String() + filepath.Ext(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	_, err = minioClient.PutObject(ctx, cfg.MinioBucket, objectName, file, header.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to store file", err.Error())
		return
	}

	log.Printf("[OK] File uploaded - %s (%d bytes)", objectName, header.Size)
	response.Success(w, http.StatusCreated, "File uploaded successfully", map[string]string{
		"bucket": cfg.MinioBucket,
		"object": objectName,
	})
}
