// Package daemon runs the background hover server. It listens on a unix
// socket, indexes crates on demand, and answers hover, quick-nav, and
// doc-URL queries from pre-rendered content.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jcdickinson/ferrishover/internal/cas"
	"github.com/jcdickinson/ferrishover/internal/config"
	"github.com/jcdickinson/ferrishover/internal/db"
	"github.com/jcdickinson/ferrishover/internal/docurl"
	"github.com/jcdickinson/ferrishover/internal/eligible"
	"github.com/jcdickinson/ferrishover/internal/markdown"
	"github.com/jcdickinson/ferrishover/internal/provider"
	"github.com/jcdickinson/ferrishover/internal/rpc"
	"github.com/jcdickinson/ferrishover/internal/rustdoc"
	"github.com/jcdickinson/ferrishover/internal/syntax"
	"golang.org/x/sync/singleflight"
)

type versionCacheEntry struct {
	version  string // resolved real version; empty for 404s
	notFound bool
	expiry   time.Time
}

type Server struct {
	db         *db.DB
	cfg        *config.Config
	socketPath string
	httpServer *http.Server
	listener   net.Listener

	// probe re-validates stored candidate URLs at query time.
	probe *docurl.Resolver

	mu         sync.Mutex
	expTimer   *time.Timer
	expiration time.Duration

	versionCache   map[string]versionCacheEntry
	versionCacheMu sync.RWMutex
	addCrateGroup  singleflight.Group

	indexCache   map[string]*rustdoc.Index
	indexCacheMu sync.RWMutex
}

func NewServer(cfg *config.Config, database *db.DB, socketPath string) *Server {
	expSec := cfg.Daemon.ExpirationSeconds
	if expSec <= 0 {
		expSec = 600
	}

	probeClient := &http.Client{Timeout: time.Duration(cfg.Probe.TimeoutSeconds) * time.Second}
	probe := docurl.New(nil, docurl.Options{
		SkipProbe:    cfg.Probe.Skip,
		Client:       probeClient,
		StdHost:      cfg.Hosts.Std,
		RegistryHost: cfg.Hosts.Registry,
	})

	return &Server{
		db:           database,
		cfg:          cfg,
		socketPath:   socketPath,
		probe:        probe,
		expiration:   time.Duration(expSec) * time.Second,
		versionCache: make(map[string]versionCacheEntry),
		indexCache:   make(map[string]*rustdoc.Index),
	}
}

func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("POST /add-crates", s.withExpReset(s.handleAddCrates))
	mux.HandleFunc("POST /hover", s.withExpReset(s.handleHover))
	mux.HandleFunc("POST /nav", s.withExpReset(s.handleNav))
	mux.HandleFunc("POST /urls", s.withExpReset(s.handleURLs))
	mux.HandleFunc("POST /resolve", s.withExpReset(s.handleResolve))
	mux.HandleFunc("GET /status", s.withExpReset(s.handleStatus))
	mux.HandleFunc("POST /clear-cache", s.withExpReset(s.handleClearCache))
	mux.HandleFunc("POST /shutdown", s.handleShutdown)

	s.httpServer = &http.Server{Handler: mux}

	s.mu.Lock()
	s.expTimer = time.AfterFunc(s.expiration, s.expire)
	s.mu.Unlock()

	log.Printf("daemon: listening on %s (expires after %s of inactivity)", s.socketPath, s.expiration)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("daemon: shutdown error: %v", err)
			errs = append(errs, err)
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			log.Printf("daemon: listener close error: %v", err)
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("daemon: socket remove error: %v", err)
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		log.Printf("daemon: db close error: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) expire() {
	log.Printf("daemon: expiring due to inactivity")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	os.Exit(0)
}

func (s *Server) resetExpiration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expTimer != nil {
		s.expTimer.Stop()
		s.expTimer.Reset(s.expiration)
	}
}

func (s *Server) withExpReset(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.resetExpiration()
		handler(w, r)
	}
}

// --- Crate indexing ---

func (s *Server) handleAddCrates(w http.ResponseWriter, r *http.Request) {
	var req rpc.AddCratesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(line rpc.ProgressLine) bool {
		if line.Message != "" {
			log.Printf("daemon: %s", line.Message)
		}
		if err := enc.Encode(line); err != nil {
			log.Printf("daemon: client disconnected: %v", err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	for _, spec := range req.Crates {
		progress := func(msg string) {
			send(rpc.ProgressLine{Type: "progress", Message: msg})
		}
		result := s.addCrate(r.Context(), spec, progress)
		if !send(rpc.ProgressLine{Type: "result", Result: &result}) {
			return
		}
	}
}

const versionCacheTTL = 10 * time.Minute

func (s *Server) getCachedVersion(name string) (versionCacheEntry, bool) {
	s.versionCacheMu.RLock()
	defer s.versionCacheMu.RUnlock()
	entry, ok := s.versionCache[name]
	if !ok || time.Now().After(entry.expiry) {
		return versionCacheEntry{}, false
	}
	return entry, true
}

func (s *Server) setCachedVersion(name, version string, notFound bool) {
	s.versionCacheMu.Lock()
	defer s.versionCacheMu.Unlock()
	s.versionCache[name] = versionCacheEntry{
		version:  version,
		notFound: notFound,
		expiry:   time.Now().Add(versionCacheTTL),
	}
}

func (s *Server) clearVersionCache() {
	s.versionCacheMu.Lock()
	defer s.versionCacheMu.Unlock()
	s.versionCache = make(map[string]versionCacheEntry)
}

// getIndex returns a built syntax index, checking memory first then the disk
// JSON cache.
func (s *Server) getIndex(name, version string) *rustdoc.Index {
	key := name + "@" + version
	s.indexCacheMu.RLock()
	idx, ok := s.indexCache[key]
	s.indexCacheMu.RUnlock()
	if ok {
		return idx
	}

	crate, err := rustdoc.LoadCache(name, version)
	if err != nil {
		return nil
	}
	idx = rustdoc.Build(crate, name, version)
	idx.CollectReexports()

	s.indexCacheMu.Lock()
	s.indexCache[key] = idx
	s.indexCacheMu.Unlock()
	return idx
}

func (s *Server) addCrate(ctx context.Context, spec rpc.CrateSpec, progress func(string)) rpc.CrateResult {
	version := spec.Version
	if version == "" {
		version = "latest"
	}

	result := rpc.CrateResult{Name: spec.Name, Version: version}

	if version == "latest" {
		if entry, ok := s.getCachedVersion(spec.Name); ok {
			if entry.notFound {
				result.Error = fmt.Sprintf("crate %s not found on docs.rs (cached)", spec.Name)
				return result
			}
			existing, err := s.db.GetCrate(spec.Name, entry.version)
			if err != nil {
				result.Error = err.Error()
				return result
			}
			if existing != nil && existing.ProcessedAt != nil {
				result.Version = existing.Version
				result.Items, _ = s.db.CountItems(existing.ID)
				return result
			}
		}

		existing, err := s.db.GetLatestCrate(spec.Name)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil {
			result.Version = existing.Version
			result.Items, _ = s.db.CountItems(existing.ID)
			return result
		}
	} else {
		existing, err := s.db.GetCrate(spec.Name, version)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil && existing.ProcessedAt != nil {
			result.Items, _ = s.db.CountItems(existing.ID)
			return result
		}
	}

	// Singleflight: dedup concurrent fetches for the same crate@version.
	key := spec.Name + "@" + version
	v, _, _ := s.addCrateGroup.Do(key, func() (interface{}, error) {
		return s.addCrateWork(ctx, spec.Name, version, progress), nil
	})
	return v.(rpc.CrateResult)
}

func (s *Server) addCrateWork(ctx context.Context, name, version string, progress func(string)) rpc.CrateResult {
	result := rpc.CrateResult{Name: name, Version: version}

	progress(fmt.Sprintf("fetching rustdoc for %s@%s", name, version))
	data, err := rustdoc.Fetch(ctx, name, version)
	if err != nil {
		if version == "latest" {
			s.setCachedVersion(name, "", true)
		}
		result.Error = fmt.Sprintf("fetching docs: %v", err)
		return result
	}

	progress(fmt.Sprintf("parsing rustdoc for %s@%s", name, version))
	crateData, err := rustdoc.Decode(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	realVersion := version
	if crateData.CrateVersion != nil && *crateData.CrateVersion != "" {
		realVersion = *crateData.CrateVersion
	}
	result.Version = realVersion
	s.setCachedVersion(name, realVersion, false)

	if realVersion != version {
		existing, err := s.db.GetCrate(name, realVersion)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil && existing.ProcessedAt != nil {
			result.Items, _ = s.db.CountItems(existing.ID)
			return result
		}
	}

	if err := rustdoc.SaveCache(data, name, realVersion); err != nil {
		log.Printf("daemon: failed to cache rustdoc JSON for %s@%s: %v", name, realVersion, err)
	}

	crate, err := s.db.UpsertCrate(name, realVersion)
	if err != nil {
		result.Error = fmt.Sprintf("upserting crate: %v", err)
		return result
	}
	s.db.MarkCrateFetched(crate.ID)

	idx := rustdoc.Build(crateData, name, realVersion)
	count, err := s.indexItems(crate, idx, progress)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	s.indexCacheMu.Lock()
	s.indexCache[name+"@"+realVersion] = idx
	s.indexCacheMu.Unlock()

	s.db.MarkCrateProcessed(crate.ID)
	result.Items = count
	progress(fmt.Sprintf("finished indexing %s@%s (%d items)", name, realVersion, count))
	return result
}

// indexItems renders every declaration's hover content and writes it to the
// content store and database.
func (s *Server) indexItems(crate *db.Crate, idx *rustdoc.Index, progress func(string)) (int, error) {
	s.db.DeleteItemsByCrate(crate.ID)
	s.db.DeleteReexportsByCrate(crate.ID)

	for _, re := range idx.CollectReexports() {
		if err := s.db.InsertReexport(crate.ID, re.LocalPrefix, re.SourceCrate, re.SourcePrefix); err != nil {
			log.Printf("daemon: failed to insert reexport %s -> %s/%s: %v", re.LocalPrefix, re.SourceCrate, re.SourcePrefix, err)
		}
	}

	// Candidate URLs are computed without probing at index time. The /urls
	// handler probes stored candidates on demand.
	urls := docurl.New(idx, docurl.Options{
		SkipProbe:    true,
		StdHost:      s.cfg.Hosts.Std,
		RegistryHost: s.cfg.Hosts.Registry,
	})
	policy := eligible.New(syntax.NodeAttrs{}, eligible.Nop{})
	prov := provider.New(idx, markdown.Renderer{}, policy, urls, nil)
	prov.SetLinkSource(idx)

	paths := make([]string, 0, len(idx.Decls()))
	for path := range idx.Decls() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	progress(fmt.Sprintf("rendering %d items from %s@%s", len(paths), crate.Name, crate.Version))

	ctx := context.Background()
	count := 0
	seen := make(map[string]bool)
	for _, path := range paths {
		d := idx.Decls()[path]
		id := idx.IDOf(d)
		if id == "" || seen[id] {
			continue // crate root or re-export alias
		}
		seen[id] = true

		var hoverHash string
		if html, ok := prov.Documentation(d); ok {
			h, err := cas.Write(html)
			if err != nil {
				log.Printf("daemon: failed to store hover for %s: %v", path, err)
				continue
			}
			hoverHash = h
		}

		var navText string
		if nav, ok := prov.QuickNavigate(d); ok {
			navText = nav
		}

		var urlsJSON string
		if candidates := prov.ExternalURLs(ctx, d); len(candidates) > 0 {
			b, _ := json.Marshal(candidates)
			urlsJSON = string(b)
		}

		item := &db.Item{
			CrateID:   crate.ID,
			RustdocID: id,
			Name:      d.DeclName(),
			Path:      path,
			Kind:      rustdoc.KindWord(d),
			HoverHash: hoverHash,
			NavText:   navText,
			DocURLs:   urlsJSON,
		}
		if err := s.db.InsertItem(item); err != nil {
			log.Printf("daemon: failed to insert item %s: %v", path, err)
			continue
		}
		count++
	}

	return count, nil
}

// --- Query handlers ---

// resolveOrFetchCrate looks up a crate, resolving "latest" and auto-fetching
// if needed.
func (s *Server) resolveOrFetchCrate(ctx context.Context, name, version string) (*db.Crate, error) {
	if version == "latest" || version == "" {
		existing, err := s.db.GetLatestCrate(name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	} else {
		existing, err := s.db.GetCrate(name, version)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ProcessedAt != nil {
			return existing, nil
		}
	}

	result := s.addCrate(ctx, rpc.CrateSpec{Name: name, Version: version}, func(msg string) {
		log.Printf("auto-fetch: %s", msg)
	})
	if result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}

	return s.db.GetCrate(name, result.Version)
}

// lookupItem finds an item by path, following re-export mappings into their
// source crate when the direct lookup misses.
func (s *Server) lookupItem(ctx context.Context, crate *db.Crate, path string) (*db.Item, *db.Crate, error) {
	item, err := s.db.GetItemByPath(crate.ID, path)
	if err != nil {
		return nil, nil, err
	}
	if item != nil {
		return item, crate, nil
	}

	srcCrate, srcPath, found := s.db.ResolveReexport(crate.ID, path)
	if !found {
		return nil, crate, nil
	}
	source, err := s.resolveOrFetchCrate(ctx, srcCrate, "latest")
	if err != nil || source == nil {
		log.Printf("daemon: re-export fetch for %s failed: %v", srcCrate, err)
		return nil, crate, nil
	}
	item, err = s.db.GetItemByPath(source.ID, srcPath)
	if err != nil {
		return nil, nil, err
	}
	return item, source, nil
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req rpc.HoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	crate, err := s.resolveOrFetchCrate(r.Context(), req.Crate, req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", req.Crate, req.Version))
		return
	}
	s.db.TouchCrate(crate.ID)

	item, _, err := s.lookupItem(r.Context(), crate, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil || item.HoverHash == "" {
		writeJSON(w, http.StatusOK, rpc.HoverResponse{Found: false})
		return
	}

	html, err := cas.Read(item.HoverHash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rpc.HoverResponse{Found: true, HTML: html, Kind: item.Kind})
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	var req rpc.HoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	crate, err := s.resolveOrFetchCrate(r.Context(), req.Crate, req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", req.Crate, req.Version))
		return
	}

	item, _, err := s.lookupItem(r.Context(), crate, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil || item.NavText == "" {
		writeJSON(w, http.StatusOK, rpc.NavResponse{Found: false})
		return
	}
	writeJSON(w, http.StatusOK, rpc.NavResponse{Found: true, Summary: item.NavText})
}

func (s *Server) handleURLs(w http.ResponseWriter, r *http.Request) {
	var req rpc.HoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	crate, err := s.resolveOrFetchCrate(r.Context(), req.Crate, req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", req.Crate, req.Version))
		return
	}

	item, _, err := s.lookupItem(r.Context(), crate, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var reachable []string
	if item != nil && item.DocURLs != "" {
		var candidates []string
		if err := json.Unmarshal([]byte(item.DocURLs), &candidates); err != nil {
			log.Printf("daemon: failed to unmarshal doc_urls for %s: %v", item.Path, err)
		}
		for _, u := range candidates {
			if s.probe.Check(r.Context(), u) {
				reachable = append(reachable, u)
			}
		}
	}
	writeJSON(w, http.StatusOK, rpc.URLsResponse{URLs: reachable})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req rpc.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	crate, err := s.resolveOrFetchCrate(r.Context(), req.Crate, req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", req.Crate, req.Version))
		return
	}

	idx := s.getIndex(crate.Name, crate.Version)
	if idx == nil {
		writeJSON(w, http.StatusOK, rpc.ResolveResponse{Found: false})
		return
	}

	var ctxNode syntax.Node
	if req.Context != "" {
		ctxNode = idx.Lookup(req.Context)
	}
	target := idx.ResolveReference(req.Reference, ctxNode)
	d, ok := target.(syntax.Decl)
	if !ok {
		writeJSON(w, http.StatusOK, rpc.ResolveResponse{Found: false})
		return
	}
	writeJSON(w, http.StatusOK, rpc.ResolveResponse{
		Found: true,
		Path:  syntax.QualifiedName(d),
		Kind:  rustdoc.KindWord(d),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	crates, err := s.db.ListCrates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var status []rpc.CrateStatus
	for _, c := range crates {
		items, _ := s.db.CountItems(c.ID)
		status = append(status, rpc.CrateStatus{
			Name:      c.Name,
			Version:   c.Version,
			Items:     items,
			Processed: c.ProcessedAt != nil,
		})
	}

	writeJSON(w, http.StatusOK, rpc.StatusResponse{Crates: status})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.clearVersionCache()
	s.indexCacheMu.Lock()
	s.indexCache = make(map[string]*rustdoc.Index)
	s.indexCacheMu.Unlock()
	log.Printf("daemon: in-memory caches cleared")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
		os.Exit(0)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
