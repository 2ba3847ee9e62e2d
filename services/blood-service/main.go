package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"blood-donation-backend/pkg/config"
	"blood-donation-backend/pkg/database"
	"blood-donation-backend/pkg/middleware"
	"blood-donation-backend/pkg/response"
	authmodels "blood-donation-backend/services/auth-service/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	cfg         *config.Config
	db          *mongo.Database
	minioClient *minio.Client
)

func main() {
	cfg = config.Load()

	var err error
	db, err = database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to MongoDB: %v", err)
	}
	if err := database.EnsureIndexes(db); err != nil {
		log.Fatalf("[ERROR] Failed to ensure indexes: %v", err)
	}

	minioClient, err = minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("[ERROR] Failed to create MinIO client: %v", err)
	}
	if err := ensureBucket(); err != nil {
		log.Fatalf("[ERROR] Failed to ensure upload bucket: %v", err)
	}

	middleware.RegisterMetrics()

	secret := cfg.Secret
	institusiOnly := middleware.RequireRole(authmodels.RoleInstitusi)
	partisipanOnly := middleware.RequireRole(authmodels.RolePartisipan)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/darah/add", middleware.Auth(secret, institusiOnly(createDarahHandler)))
	mux.HandleFunc("/api/darah/all", darahAllHandler)
	mux.HandleFunc("/api/darah/institusi/", middleware.Auth(secret, institusiOnly(darahByInstitusiHandler)))
	mux.HandleFunc("/api/darah/report/volume/", volumeByInstitusiHandler)
	mux.HandleFunc("/api/darah/report/rhesus/", volumeByRhesusHandler)
	mux.HandleFunc("/api/darah/", darahDetailHandler)

	mux.HandleFunc("/api/inventory/stock", totalStockByRhesusHandler)

	mux.HandleFunc("/api/order/add", middleware.Auth(secret, partisipanOnly(createOrderHandler)))
	mux.HandleFunc("/api/order/all", orderAllHandler)
	mux.HandleFunc("/api/order/status/", middleware.Auth(secret, updateOrderStatusHandler))
	mux.HandleFunc("/api/order/institusi/", middleware.Auth(secret, institusiOnly(orderByInstitusiHandler)))
	mux.HandleFunc("/api/order/ordered/", middleware.Auth(secret, partisipanOnly(orderedForDonorHandler)))
	mux.HandleFunc("/api/order/history/", middleware.Auth(secret, partisipanOnly(orderHistoryForDonorHandler)))
	mux.HandleFunc("/api/order/", middleware.Auth(secret, partisipanOnly(orderDetailHandler)))

	mux.HandleFunc("/api/upload", uploadHandler)
	mux.HandleFunc("/api/uploads", uploadHandler)

	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", middleware.GetMetricsHandler())

	handler := middleware.Trace(middleware.Metrics(middleware.Logger(mux)))

	port := os.Getenv("BLOOD_PORT")
	if port == "" {
		port = "8082"
	}

	log.Printf("[INFO] Blood Service running on port :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("[ERROR] Server failed: %v", err)
	}
}

// darahDetailHandler splits auth per method: reads are restricted to
// institutions, the patch endpoint is open.
func darahDetailHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		middleware.Auth(cfg.Secret, middleware.RequireRole(authmodels.RoleInstitusi)(getDarahHandler))(w, r)
	case http.MethodPatch:
		updateDarahHandler(w, r)
	default:
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":  "UP",
		"service": "blood-service",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := db.Client().Ping(ctx, nil); err != nil {
		health["status"] = "DOWN"
		health["database"] = "disconnected"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		health["database"] = "connected"
	}

	json.NewEncoder(w).Encode(health)
}

// parsePagination reads page/limit query params with the usual defaults.
func parsePagination(r *http.Request) (int64, int64) {
	page := int64(1)
	limit := int64(10)

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	return page, limit
}
