package pdf

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/a3tai/mcp-aadhaar-reader/internal/descriptions"
)

const (
	// serverInfoFileLimit caps the directory listing in server info
	serverInfoFileLimit = 100
	// DefaultDirectoryCacheTTL is how long a directory listing is reused
	DefaultDirectoryCacheTTL = 30 * time.Second
)

// DirectoryCache provides TTL-based caching for directory listings
type DirectoryCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

type cacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
}

// NewDirectoryCache creates a new directory cache with the given TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached listing for dir if it has not expired
func (c *DirectoryCache) Get(dir string) ([]FileInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[dir]
	if !exists || c.now().Sub(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return entry.files, true
}

// Set stores the listing for dir
func (c *DirectoryCache) Set(dir string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[dir] = cacheEntry{files: files, lastUpdate: c.now()}
}

// Clear removes every entry
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// ServerInfo describes the server, its settings and the PDFs waiting in the
// configured directory. A directory that cannot be listed yields an empty
// file list rather than an error.
func (s *Service) ServerInfo(serverName, version string) *ServerInfoResult {
	dir := s.Directory()

	files, ok := s.dirCache.Get(dir)
	if !ok {
		found, err := s.FindPDFs(serverInfoFileLimit)
		if err != nil {
			found = []FileInfo{}
		}
		s.dirCache.Set(dir, found)
		files = found
	}

	opts := s.config.Extraction
	return &ServerInfoResult{
		ServerName:       serverName,
		Version:          version,
		Directory:        dir,
		MaxFileSize:      s.config.MaxFileSize,
		FallbackPolicy:   string(opts.FallbackPolicy),
		AvailableTools:   availableTools(),
		AvailableFiles:   files,
		SupportedFormats: []string{"application/pdf"},
		UsageGuidance:    s.usageGuidance(),
		Settings: map[string]string{
			"line_threshold":     strconv.FormatFloat(s.layout.LineThreshold, 'g', -1, 64),
			"context_window":     strconv.Itoa(opts.ContextWindow),
			"gender_date_window": strconv.Itoa(opts.GenderDateWindow),
			"max_birth_year":     strconv.Itoa(opts.MaxBirthYear),
			"min_text_length":    strconv.Itoa(s.config.MinTextLength),
			"pdf_library":        string(s.config.Library.PreferredLibrary),
		},
	}
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        descriptions.ToolExtract,
			Description: descriptions.GetToolDescription(descriptions.ToolExtract),
			Usage:       "path or content (base64) required; name and password optional",
		},
		{
			Name:        descriptions.ToolValidateNumber,
			Description: descriptions.GetToolDescription(descriptions.ToolValidateNumber),
			Usage:       "number (required): the 12-digit number, spaces and hyphens allowed",
		},
		{
			Name:        descriptions.ToolInspectPDF,
			Description: descriptions.GetToolDescription(descriptions.ToolInspectPDF),
			Usage:       "path (required); password optional",
		},
		{
			Name:        descriptions.ToolServerInfo,
			Description: descriptions.GetToolDescription(descriptions.ToolServerInfo),
			Usage:       "no parameters",
		},
	}
}

func (s *Service) usageGuidance() string {
	maxFileSizeMB := s.config.MaxFileSize / (1024 * 1024)

	return fmt.Sprintf(`Aadhaar Reader Usage Guide:

1. Call '%s' to list PDFs in the configured directory.
2. Call '%s' with a path from that list, or with base64 content.
   - If the result says the PDF is password protected, ask the user for the
     password and call again with 'password'.
3. Use '%s' to check a number typed by hand.
4. Use '%s' when extraction fails and you need to see why.

Files up to %dMB are accepted. Scanned cards without a text layer cannot be read.`,
		descriptions.ToolServerInfo, descriptions.ToolExtract, descriptions.ToolValidateNumber,
		descriptions.ToolInspectPDF, maxFileSizeMB)
}
