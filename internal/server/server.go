package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mindwell/synapse/internal/config"
	"github.com/mindwell/synapse/internal/note"
	"github.com/mindwell/synapse/internal/oracle"
	"github.com/mindwell/synapse/internal/search"
	"github.com/mindwell/synapse/internal/session"
)

type Server struct {
	cfg        *config.Config
	store      note.Store
	memory     *note.MemoryStore // non-nil in demo mode, backs POST /notes
	connOracle oracle.ConnectionOracle
	ranker     search.Ranker

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: could not load %s: %v. Using defaults.", cfgPath, err)
		cfg = config.Default()
	}

	// Env overrides for the LLM settings.
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
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}

	s := &Server{
		cfg:      cfg,
		sessions: make(map[string]*session.Session),
	}

	switch cfg.Notes.Store {
	case "memgraph":
		uri := cfg.Memgraph.URI
		if v := os.Getenv("MEMGRAPH_URI"); v != "" {
			uri = v
		}
		if uri == "" {
			uri = "bolt://localhost:7687"
		}
		mg, err := note.NewMemgraphStore(uri, cfg.Memgraph.User, cfg.Memgraph.Password)
		if err != nil {
			log.Fatalf("Failed to connect to Memgraph: %v", err)
		}
		if err := mg.BuildIndices(context.Background()); err != nil {
			log.Printf("Warning: failed to build indices: %v", err)
		}
		s.store = mg
	default:
		mem := note.NewMemoryStore()
		s.store = mem
		s.memory = mem
	}

	llmClient, embedder, err := oracle.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	s.connOracle = oracle.NewLLMConnectionOracle(llmClient, cfg.Prompts.Analyze)
	s.ranker = oracle.NewEmbeddingRanker(embedder)

	return s
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/notes", s.AddNote)
	r.POST("/sessions", s.CreateSession)
	r.DELETE("/sessions/:id", s.CloseSession)
	r.GET("/sessions/:id/graph", s.GetGraph)
	r.POST("/sessions/:id/refresh", s.RefreshSession)
	r.POST("/sessions/:id/analyze", s.Analyze)
	r.POST("/sessions/:id/search", s.Search)
	r.POST("/sessions/:id/pin", s.PinNode)
	r.POST("/sessions/:id/unpin", s.UnpinNode)
	r.POST("/sessions/:id/hover", s.HoverNode)
	r.POST("/sessions/:id/select", s.SelectNode)
	r.POST("/sessions/:id/focus", s.FocusMode)
	r.GET("/sessions/:id/emphasis", s.GetEmphasis)

	return r
}

func (s *Server) get(c *gin.Context) (*session.Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return nil, false
	}
	return sess, true
}

type AddNoteRequest struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

// AddNote is a demo-mode convenience: it writes into the in-memory store so
// the graph can be exercised without a note-capture backend.
func (s *Server) AddNote(c *gin.Context) {
	if s.memory == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Note ingestion only available with the memory store"})
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	n := note.Note{
		ID:        uuid.New().String(),
		Text:      req.Text,
		Tags:      req.Tags,
		CreatedAt: time.Now().UTC(),
	}
	s.memory.Add(n)
	c.JSON(http.StatusOK, gin.H{"id": n.ID})
}

type CreateSessionRequest struct {
	Tag string `json:"tag"`
}

func (s *Server) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	_ = c.ShouldBindJSON(&req) // empty body means no filter

	sess, err := session.New(c.Request.Context(), s.cfg, s.store, s.connOracle, s.ranker, req.Tag)
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID})
}

func (s *Server) CloseSession(c *gin.Context) {
	s.mu.Lock()
	sess, ok := s.sessions[c.Param("id")]
	delete(s.sessions, c.Param("id"))
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	sess.Close()
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (s *Server) GetGraph(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Payload())
}

type RefreshRequest struct {
	Tag string `json:"tag"`
}

func (s *Server) RefreshSession(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}

	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)

	if err := sess.Refresh(c.Request.Context(), req.Tag); err != nil {
		log.Printf("Failed to refresh session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh"})
		return
	}
	c.JSON(http.StatusOK, sess.Payload())
}

func (s *Server) Analyze(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}

	applied, err := sess.Analyze(c.Request.Context())
	if err != nil {
		// Oracle failure degrades to "no new data"; the client may retry.
		log.Printf("Connection analysis failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"applied": false, "error": "Analysis temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

type SearchRequest struct {
	Query string `json:"query"`
}

func (s *Server) Search(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// An empty query is "clear the search box": emphasis drops, nothing ranks.
	if strings.TrimSpace(req.Query) == "" {
		sess.ClearSearch()
		c.JSON(http.StatusOK, gin.H{"results": []oracle.Match{}})
		return
	}

	matches, err := sess.Search(c.Request.Context(), req.Query)
	if err != nil {
		log.Printf("Search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": matches})
}

type PinRequest struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (s *Server) PinNode(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}

	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NodeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	sess.Pin(req.NodeID, req.X, req.Y)
	c.JSON(http.StatusOK, gin.H{"status": "pinned"})
}

type NodeRequest struct {
	NodeID string `json:"node_id"`
}

func (s *Server) UnpinNode(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}

	var req NodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NodeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	sess.Unpin(req.NodeID)
	c.JSON(http.StatusOK, gin.H{"status": "unpinned"})
}

// HoverNode with an empty node_id is pointer-leave.
func (s *Server) HoverNode(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}

	var req NodeRequest
	_ = c.ShouldBindJSON(&req)
	if req.NodeID == "" {
		sess.Leave()
	} else {
		sess.Hover(req.NodeID)
	}
	c.JSON(http.StatusOK, sess.Emphasis())
}

// SelectNode with an empty node_id is a background click.
func (s *Server) SelectNode(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}

	var req NodeRequest
	_ = c.ShouldBindJSON(&req)
	if req.NodeID == "" {
		sess.ClickBackground()
	} else {
		sess.Click(req.NodeID)
	}
	c.JSON(http.StatusOK, sess.Emphasis())
}

type FocusRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) FocusMode(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}

	var req FocusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	sess.SetFocusMode(req.Enabled)
	c.JSON(http.StatusOK, sess.Emphasis())
}

func (s *Server) GetEmphasis(c *gin.Context) {
	sess, ok := s.get(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Emphasis())
}
