// Package api provides the REST API server for wrk2mid
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/james-see/wrk2mid/pkg/converter"
	"github.com/james-see/wrk2mid/pkg/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// maxUploadSize bounds the multipart body of a conversion request
const maxUploadSize = 32 << 20

// @title wrk2mid API
// @version 1.0
// @description API for converting Cakewalk WRK songs to Standard MIDI Files
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	return NewRouter().Run(fmt.Sprintf(":%d", port))
}

// NewRouter builds the gin engine with every route installed
func NewRouter() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.POST("/convert/wrk2mid", handleWRKToMIDI)
		v1.POST("/check", handleCheck)
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
		"service": "wrk2mid",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the input and output formats and text encodings
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"wrk", "midi"},
		"conversions": converter.GetSupportedConversions(),
		"encodings":   converter.SupportedEncodings(),
	})
}

// handleWRKToMIDI godoc
// @Summary Convert WRK to MIDI
// @Description Upload a Cakewalk .wrk file and receive a Standard MIDI File
// @Tags convert
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "WRK file to convert"
// @Param format query int false "SMF format, 0 or 1 (default: 1)"
// @Param encoding query string false "Codepage of song texts"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/wrk2mid [post]
func handleWRKToMIDI(c *gin.Context) {
	conv, name, data, ok := loadUpload(c)
	if !ok {
		return
	}

	if err := conv.Load(data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := conv.Sequence().WriteMIDI(&buf); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, converter.ErrNoTracks) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", converter.OutputPath(name)))
	c.Data(http.StatusOK, "audio/midi", buf.Bytes())
}

// handleCheck godoc
// @Summary Check a WRK file
// @Description Load a .wrk file and report what it holds without converting it
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "WRK file to check"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/check [post]
func handleCheck(c *gin.Context) {
	conv, name, data, ok := loadUpload(c)
	if !ok {
		return
	}

	err := conv.Load(data)
	seq := conv.Sequence()
	problems := make([]string, 0, len(seq.Problems()))
	for _, p := range seq.Problems() {
		problems = append(problems, p.Error())
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"file":     name,
			"ok":       false,
			"problems": problems,
		})
		return
	}

	resp := gin.H{
		"file":     name,
		"ok":       true,
		"version":  seq.Version(),
		"division": seq.Division(),
		"tracks":   len(seq.Tracks()),
		"ticks":    seq.SongLengthTicks(),
	}
	if lo, hi, ok := seq.NoteRange(); ok {
		resp["note_range"] = []int{lo, hi}
	}
	c.JSON(http.StatusOK, resp)
}

// loadUpload reads the uploaded file and builds a converter from the query.
// It writes the error response itself and returns false on failure.
func loadUpload(c *gin.Context) (*converter.Converter, string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", nil, false
	}

	opts := converter.DefaultOptions()
	opts.Logger = logger.GetLogger()
	if f := c.Query("format"); f != "" {
		n, err := strconv.Atoi(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format must be 0 or 1"})
			return nil, "", nil, false
		}
		opts.Format = n
	}
	opts.Encoding = c.Query("encoding")

	conv, err := converter.New(opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", nil, false
	}

	name := header.Filename
	if converter.DetectFormat(name) != converter.FormatWRK {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%v: %s", converter.ErrWrongFileType, name)})
		return nil, "", nil, false
	}
	return conv, name, data, true
}
