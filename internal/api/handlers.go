package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"paperstage/internal/generate"
	"paperstage/internal/script/emotion"
	"paperstage/internal/script/parser"
	"paperstage/internal/session"
	"paperstage/internal/tts"
)

const maxPaperBytes = 10 << 20

// Server wires the HTTP surface to the engine underneath.
type Server struct {
	parser    *parser.Parser
	detector  *emotion.Detector
	cast      *tts.Cast
	service   *tts.Service
	batch     *tts.BatchProcessor
	generator *generate.Generator
	sessions  *session.Store
	hub       *Hub
	log       *logrus.Entry
}

func NewServer(p *parser.Parser, d *emotion.Detector, cast *tts.Cast, svc *tts.Service, batch *tts.BatchProcessor, gen *generate.Generator, sessions *session.Store) *Server {
	return &Server{
		parser:    p,
		detector:  d,
		cast:      cast,
		service:   svc,
		batch:     batch,
		generator: gen,
		sessions:  sessions,
		hub:       NewHub(),
		log:       logrus.WithField("component", "api"),
	}
}

// handleUpload receives paper text as the request body or a multipart
// "paper" file and opens a session for it.
func (s *Server) handleUpload(c *gin.Context) {
	title := c.Query("title")

	var paper []byte
	if file, err := c.FormFile("paper"); err == nil {
		f, err := file.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "bad_upload", err.Error())
			return
		}
		defer f.Close()
		paper, err = io.ReadAll(io.LimitReader(f, maxPaperBytes))
		if err != nil {
			respondError(c, http.StatusBadRequest, "bad_upload", err.Error())
			return
		}
		if title == "" {
			title = file.Filename
		}
	} else {
		var err error
		paper, err = io.ReadAll(io.LimitReader(c.Request.Body, maxPaperBytes))
		if err != nil {
			respondError(c, http.StatusBadRequest, "bad_upload", err.Error())
			return
		}
	}

	if len(paper) == 0 {
		respondError(c, http.StatusBadRequest, "empty_paper", "no paper text provided")
		return
	}

	sess := s.sessions.Create(title, string(paper))
	respondOK(c, sess)
}

// handleGenerate runs the chat model over a session's paper and stores the
// resulting script.
func (s *Server) handleGenerate(c *gin.Context) {
	if s.generator == nil {
		respondError(c, http.StatusServiceUnavailable, "no_generator", "script generation not configured")
		return
	}

	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		respondError(c, http.StatusNotFound, "not_found", err.Error())
		return
	}

	script, sentences, err := s.generator.GenerateScript(c.Request.Context(), sess.Paper)
	if err != nil {
		respondError(c, http.StatusBadGateway, "generate_failed", err.Error())
		return
	}
	if err := s.sessions.SetScript(sess.ID, script, sentences); err != nil {
		respondError(c, http.StatusNotFound, "not_found", err.Error())
		return
	}

	respondOK(c, gin.H{"session_id": sess.ID, "lines": len(sentences), "script": script})
}

// handleParse compiles a raw script without a session.
func (s *Server) handleParse(c *gin.Context) {
	script, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPaperBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	respondOK(c, s.parser.ParseScript(string(script)))
}

// handleTTS synthesizes one line for one speaker.
func (s *Server) handleTTS(c *gin.Context) {
	var req struct {
		Text    string `json:"text" binding:"required"`
		Speaker string `json:"speaker" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ch, ok := s.cast.Resolve(req.Speaker)
	if !ok {
		respondError(c, http.StatusNotFound, "unknown_speaker", "speaker not in cast: "+req.Speaker)
		return
	}

	detected := s.detector.Detect(req.Text)
	res, err := s.service.GenerateSpeech(c.Request.Context(), tts.Request{
		Text:      req.Text,
		Character: ch,
		Emotion:   detected.Emotion,
	})
	if err != nil {
		if errors.Is(err, tts.ErrAllProvidersFailed) {
			respondError(c, http.StatusBadGateway, "synthesis_failed", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	respondOK(c, gin.H{"result": res, "emotion": detected})
}

// handleBatch synthesizes a session's script, streaming progress over the
// websocket hub.
func (s *Server) handleBatch(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
		Script    string `json:"script"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var sentences []parser.Sentence
	switch {
	case req.SessionID != "":
		sess, err := s.sessions.Get(req.SessionID)
		if err != nil {
			respondError(c, http.StatusNotFound, "not_found", err.Error())
			return
		}
		if len(sess.Sentences) == 0 {
			respondError(c, http.StatusConflict, "no_script", "session has no generated script")
			return
		}
		sentences = sess.Sentences
	case req.Script != "":
		sentences = s.parser.ParseScript(req.Script)
	default:
		respondError(c, http.StatusBadRequest, "bad_request", "session_id or script required")
		return
	}

	items, skipped := s.batch.ExtractSpeakable(sentences)
	result := s.batch.Process(c.Request.Context(), items, skipped, func(p tts.Progress) {
		s.hub.Broadcast(p)
	})
	respondOK(c, result)
}

// handleStats reports cache counters and provider health.
func (s *Server) handleStats(c *gin.Context) {
	stats := s.service.Cache().Stats()
	respondOK(c, gin.H{
		"cache":     stats,
		"hit_rate":  stats.HitRate(),
		"providers": s.service.Statuses(c.Request.Context()),
	})
}

// handleCacheClean sweeps entries older than max_age_days, default 30.
func (s *Server) handleCacheClean(c *gin.Context) {
	days := 30
	if raw := c.Query("max_age_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "bad_request", "max_age_days must be a non-negative integer")
			return
		}
		days = parsed
	}
	removed, err := s.service.Cache().CleanOldEntries(days)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondOK(c, gin.H{"removed": removed})
}

func (s *Server) handleSessionGet(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "not_found", err.Error())
		return
	}
	respondOK(c, sess)
}

func (s *Server) handleSessionDelete(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		respondError(c, http.StatusNotFound, "not_found", err.Error())
		return
	}
	respondOK(c, gin.H{"deleted": c.Param("id")})
}

func (s *Server) handleSessionList(c *gin.Context) {
	respondOK(c, s.sessions.List())
}
