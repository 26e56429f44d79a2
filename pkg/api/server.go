// Package api provides the REST API server for notesmith
package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/notesmith/pkg/audio"
	"github.com/james-see/notesmith/pkg/config"
	"github.com/james-see/notesmith/pkg/render"
	"github.com/james-see/notesmith/pkg/sequence"
	"github.com/james-see/notesmith/pkg/theory"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title notesmith API
// @version 1.0
// @description API for note parsing, sequence augmentation and melody rendering
// @host localhost:8080
// @BasePath /api/v1

// Server holds the dependencies shared by the handlers
type Server struct {
	renderer   *render.Renderer
	defaults   render.Config
	sampleRate int
	log        logrus.FieldLogger
}

// NewServer creates a Server rendering with r and filling request gaps from defaults
func NewServer(r *render.Renderer, defaults render.Config, sampleRate int, logger logrus.FieldLogger) *Server {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{renderer: r, defaults: defaults, sampleRate: sampleRate, log: logger.WithField("component", "api")}
}

// StartServer starts the API server on the specified port
func StartServer(port int, cfg *config.Config) error {
	logger := cfg.Logger()
	r, err := cfg.NewRenderer(logger)
	if err != nil {
		return err
	}
	s := NewServer(r, cfg.Render, cfg.SampleRate, logger)
	return s.Router().Run(fmt.Sprintf(":%d", port))
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/theory/note/:name", handleNote)
		v1.GET("/theory/scales", listScales)
		v1.GET("/theory/scales/:type", handleScale)
		v1.GET("/theory/chords", listChords)
		v1.GET("/theory/chords/:symbol", handleChord)
		v1.POST("/theory/parse", handleParse)
		v1.GET("/instruments", listInstruments)
		v1.POST("/render", s.handleRender)
		v1.POST("/augment", s.handleAugment)
		v1.POST("/waveform", s.handleWaveform)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "notesmith",
	})
}

// handleNote godoc
// @Summary Describe a note
// @Description Accepts a note name (C4, Bb3) or a MIDI number and returns its MIDI value, name and frequency
// @Tags theory
// @Produce json
// @Param name path string true "Note name or MIDI number"
// @Success 200 {object} theory.NoteInfo
// @Failure 400 {object} map[string]string
// @Router /api/v1/theory/note/{name} [get]
func handleNote(c *gin.Context) {
	name := c.Param("name")

	midi, err := strconv.Atoi(name)
	if err != nil {
		midi, err = theory.NoteToMIDI(name)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	info, err := theory.Describe(midi)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// listScales godoc
// @Summary List scale types
// @Tags theory
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/theory/scales [get]
func listScales(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scales": theory.ScaleTypes()})
}

// handleScale godoc
// @Summary Generate a scale
// @Tags theory
// @Produce json
// @Param type path string true "Scale type"
// @Param root query string false "Root note (default: C)"
// @Param octaves query int false "Number of octaves (default: 2)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/theory/scales/{type} [get]
func handleScale(c *gin.Context) {
	scaleType := c.Param("type")
	root := c.DefaultQuery("root", "C")
	octaves, err := strconv.Atoi(c.DefaultQuery("octaves", strconv.Itoa(theory.DefaultOctaves)))
	if err != nil || octaves < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "octaves must be a positive integer"})
		return
	}

	if _, ok := theory.ScaleIntervals(scaleType); !ok {
		respondError(c, fmt.Errorf("%w: scale %q", theory.ErrUnsupportedType, scaleType))
		return
	}
	if _, err := theory.PitchClass(root); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"root":  root,
		"type":  scaleType,
		"notes": describeAll(theory.ScaleToMIDINotes(root, scaleType, octaves)),
	})
}

// listChords godoc
// @Summary List chord types
// @Tags theory
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/theory/chords [get]
func listChords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chords": theory.ChordTypes()})
}

// handleChord godoc
// @Summary Voice a chord symbol
// @Tags theory
// @Produce json
// @Param symbol path string true "Chord symbol, e.g. Am7"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/theory/chords/{symbol} [get]
func handleChord(c *gin.Context) {
	root, chordType, err := theory.ParseChord(c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"root":  root,
		"type":  chordType,
		"notes": describeAll(theory.ChordToMIDINotes(root, chordType)),
	})
}

// ParseRequest is the body of /theory/parse
type ParseRequest struct {
	Input string `json:"input" binding:"required"`
}

// handleParse godoc
// @Summary Parse notes, chords and scales
// @Description Parses comma separated notes, chords and scales into MIDI values
// @Tags theory
// @Accept json
// @Produce json
// @Param request body ParseRequest true "Input text"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/theory/parse [post]
func handleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	midi := theory.ParseMusicInput(req.Input)
	if midi == nil {
		midi = []int{}
	}
	c.JSON(http.StatusOK, gin.H{
		"midi":  midi,
		"notes": describeAll(midi),
	})
}

// listInstruments godoc
// @Summary List instruments
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/instruments [get]
func listInstruments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"instruments": render.Instruments(),
		"formats":     []audio.Format{audio.FormatWAV, audio.FormatMP3},
		"waveforms":   audio.WaveTypes,
	})
}

// RenderRequest is the body of /render. Either Pitches or Notes must be set.
type RenderRequest struct {
	Pitches      []int   `json:"pitches"`
	Notes        string  `json:"notes"`
	Instrument   string  `json:"instrument"`
	Tempo        int     `json:"tempo" binding:"omitempty,gt=0"`
	NoteDuration float64 `json:"note_duration" binding:"omitempty,gt=0"`
	Velocity     int     `json:"velocity" binding:"omitempty,min=1,max=127"`
	Format       string  `json:"format" binding:"omitempty,oneof=wav mp3"`
}

func (req RenderRequest) config(defaults render.Config) render.Config {
	cfg := defaults
	if req.Instrument != "" {
		cfg.Instrument = req.Instrument
	}
	if req.Tempo != 0 {
		cfg.Tempo = req.Tempo
	}
	if req.NoteDuration != 0 {
		cfg.NoteDuration = req.NoteDuration
	}
	if req.Velocity != 0 {
		cfg.Velocity = req.Velocity
	}
	if req.Format != "" {
		cfg.Format = audio.Format(req.Format)
	}
	return cfg
}

// handleRender godoc
// @Summary Render a melody
// @Description Renders MIDI pitches (or note text) to a normalized audio file
// @Tags render
// @Accept json
// @Produce application/octet-stream
// @Param request body RenderRequest true "Pitches and render settings"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/render [post]
func (s *Server) handleRender(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pitches := req.Pitches
	if len(pitches) == 0 && req.Notes != "" {
		pitches = theory.ParseMusicInput(req.Notes)
	}
	if len(pitches) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no pitches to render"})
		return
	}

	cfg := req.config(s.defaults)
	path, err := s.renderer.GenerateFromPredictions(c.Request.Context(), pitches, cfg)
	if err != nil {
		s.log.WithError(err).Error("render failed")
		respondError(c, err)
		return
	}

	c.Header("X-Output-Path", path)
	c.FileAttachment(path, filepath.Base(path))
}

// handleAugment godoc
// @Summary Augment a MIDI file
// @Description Upload a MIDI file and receive the original plus augmented note sequences
// @Tags sequence
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file"
// @Param kinds formData string false "Comma separated: transpose,time_shift,velocity_change"
// @Param seed formData int false "Random seed"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/augment [post]
func (s *Server) handleAugment(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	sc, err := readScore(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kinds, err := sequence.ParseKinds(strings.Split(c.PostForm("kinds"), ","))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seed, err := parseSeed(c.PostForm("seed"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an integer"})
		return
	}

	sequences := sequence.Augment(sc.Notes, newRand(seed), kinds...)
	c.JSON(http.StatusOK, gin.H{
		"seed":      seed,
		"tempo":     sc.Tempo,
		"program":   sc.Program,
		"sequences": sequences,
	})
}

// WaveformRequest is the body of /waveform
type WaveformRequest struct {
	Frequency  float64  `json:"frequency" binding:"required,gt=0"`
	Duration   float64  `json:"duration" binding:"required,gt=0,lte=60"`
	SampleRate int      `json:"sample_rate" binding:"omitempty,gt=0,lte=192000"`
	WaveType   string   `json:"wave_type"`
	Volume     *float64 `json:"volume" binding:"omitempty,gte=0,lte=1"`
}

// handleWaveform godoc
// @Summary Generate a raw waveform
// @Description Returns a mono 16-bit WAV tone
// @Tags render
// @Accept json
// @Produce audio/wav
// @Param request body WaveformRequest true "Waveform settings"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/waveform [post]
func (s *Server) handleWaveform(c *gin.Context) {
	var req WaveformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	waveType := audio.WaveSine
	if req.WaveType != "" {
		w, err := audio.ParseWaveType(req.WaveType)
		if err != nil {
			respondError(c, err)
			return
		}
		waveType = w
	}
	sampleRate := s.sampleRate
	if req.SampleRate > 0 {
		sampleRate = req.SampleRate
	}
	volume := audio.DefaultVolume
	if req.Volume != nil {
		volume = *req.Volume
	}

	buf, err := audio.Tone(req.Frequency, req.Duration, sampleRate, waveType, volume)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := encodeWAV(c.Request.Context(), buf)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.wav", waveType))
	c.Data(http.StatusOK, "audio/wav", data)
}

func describeAll(midi []int) []theory.NoteInfo {
	infos := make([]theory.NoteInfo, 0, len(midi))
	for _, m := range midi {
		if info, err := theory.Describe(m); err == nil {
			infos = append(infos, info)
		}
	}
	return infos
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, theory.ErrInvalidNoteFormat),
		errors.Is(err, theory.ErrOutOfRangeMIDI),
		errors.Is(err, theory.ErrUnsupportedType),
		errors.Is(err, audio.ErrUnsupportedWaveform),
		errors.Is(err, audio.ErrWaveformTooLong),
		errors.Is(err, render.ErrInvalidConfig),
		errors.Is(err, sequence.ErrInvalidNote):
		return http.StatusBadRequest
	case errors.Is(err, render.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
