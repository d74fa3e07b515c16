package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plansmith/takeoff/internal/config"
	"github.com/plansmith/takeoff/internal/ingest"
	"github.com/plansmith/takeoff/internal/llm"
	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/router"
	"github.com/plansmith/takeoff/internal/store"
	"github.com/plansmith/takeoff/internal/vision"
)

type Server struct {
	Router   *router.Router
	Pipeline *ingest.Pipeline
	log      *zap.Logger
}

// New wires all collaborators from configuration. Env vars override the
// config file so deployments can inject credentials without editing TOML.
func New(ctx context.Context, log *zap.Logger) (*Server, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Warn("could not load config file, using defaults", zap.String("path", cfgPath), zap.Error(err))
		cfg = config.Default()
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}

	llmClient, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	st, err := store.NewPostgresStore(ctx, cfg.Postgres.URL, log.Named("store"))
	if err != nil {
		return nil, err
	}
	if err := st.BuildSchema(ctx); err != nil {
		log.Warn("schema setup incomplete", zap.Error(err))
	}

	analyzer := vision.NewAnalyzer(llmClient, cfg.Vision, log.Named("vision"))

	return &Server{
		Router:   router.New(st, embedder, analyzer, st, cfg.Router, log.Named("router")),
		Pipeline: ingest.NewPipeline(analyzer, st, cfg.Ingest, log.Named("ingest")),
		log:      log,
	}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/ask", s.Ask)
	r.POST("/projects/:id/ingest", s.Ingest)

	return r
}

type AskRequest struct {
	ProjectID     string  `json:"project_id" binding:"required"`
	Query         string  `json:"query" binding:"required"`
	MaxResults    int     `json:"max_results"`
	MinConfidence float64 `json:"min_confidence"`
}

func (s *Server) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result := s.Router.Route(c.Request.Context(), req.Query, req.ProjectID, router.Options{
		MaxResults:    req.MaxResults,
		MinConfidence: req.MinConfidence,
	})
	c.JSON(http.StatusOK, result)
}

type IngestRequest struct {
	Category string `json:"category"`
	Sheets   []struct {
		SheetNumber string `json:"sheet_number"`
		MimeType    string `json:"mime_type"`
		Data        string `json:"data"` // base64
	} `json:"sheets" binding:"required"`
}

func (s *Server) Ingest(c *gin.Context) {
	projectID := c.Param("id")

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sheets := make([]model.SheetImage, 0, len(req.Sheets))
	for _, sh := range req.Sheets {
		data, err := base64.StdEncoding.DecodeString(sh.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sheet data encoding"})
			return
		}
		sheets = append(sheets, model.SheetImage{
			ProjectID:   projectID,
			SheetNumber: sh.SheetNumber,
			MimeType:    sh.MimeType,
			Data:        data,
		})
	}

	result := s.Pipeline.ProcessSheets(c.Request.Context(), sheets, req.Category)
	c.JSON(http.StatusOK, result)
}
