package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/aquarium/pkg/adapters/fs"
	"github.com/aretw0/aquarium/pkg/adapters/memory"
	"github.com/aretw0/aquarium/pkg/adapters/remote"
	"github.com/aretw0/aquarium/pkg/adapters/sqlite"
	"github.com/aretw0/aquarium/pkg/core"
)

// Init builds and initializes the store selected by the options.
// The uri argument is adapter-specific: a directory for fs, a database
// file for sqlite, a server address for remote; memory ignores it.
func Init(uri string, opts ...Option) (core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initStore(context.Background(), uri, o)
}

func initStore(ctx context.Context, uri string, o *options) (core.Store, error) {
	if o.store != nil {
		return o.store, nil
	}

	var store core.Store
	var err error

	switch o.adapter {
	case AdapterFS, "":
		store, err = initFS(uri, o)
	case AdapterMemory:
		buffer, _ := o.config["event_buffer"].(int)
		store = memory.NewStore(memory.Config{Logger: o.logger, Buffer: buffer})
	case AdapterSQLite:
		store, err = initSQLite(uri, o)
	case AdapterRemote:
		store, err = remote.NewStore(remote.Config{BaseURL: uri, Logger: o.logger})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	if o.logger != nil {
		o.logger.Debug("store ready", "adapter", o.adapter, "uri", uri)
	}
	return store, nil
}

// initFS handles the initialization logic for the filesystem adapter.
func initFS(path string, o *options) (core.Store, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	gitless, _ := o.config["gitless"].(bool)
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	format, _ := o.config["format"].(string)
	debounce, _ := o.config["debounce"].(time.Duration)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	isReadOnly, _ := o.config["read_only"].(bool)

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Read-only stores cannot damage anything.
	bypassSafety := isReadOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveStorePath(path, useTemp)

	if IsDevRun() && o.logger != nil {
		if bypassSafety {
			if isReadOnly {
				o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolvedPath)
			} else {
				o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
			}
		} else {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolvedPath)
		}
	}

	if systemDir == "" {
		systemDir = ".aquarium"
	}

	// Without an explicit choice, an existing .git decides. A fresh store
	// is versioned; an existing store without .git stays gitless.
	if _, ok := o.config["gitless"]; !ok {
		if _, err := os.Stat(filepath.Join(resolvedPath, ".git")); err == nil {
			gitless = false
		} else if _, err := os.Stat(filepath.Join(resolvedPath, systemDir)); err == nil || !autoInit {
			gitless = true
		} else {
			gitless = false
		}
		if gitless && o.logger != nil {
			o.logger.Debug("auto-detected gitless mode", "reason", ".git missing")
		}
	}

	if o.logger != nil && useTemp {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
	}

	return fs.NewStore(fs.Config{
		Path:         resolvedPath,
		Format:       format,
		AutoInit:     autoInit,
		Gitless:      gitless,
		MustExist:    mustExist || (!autoInit && !useTemp),
		ReadOnly:     isReadOnly,
		Logger:       o.logger,
		SystemDir:    systemDir,
		Debounce:     debounce,
		ErrorHandler: errorHandler,
	}), nil
}

// initSQLite accepts either a database file or a directory to hold one.
func initSQLite(uri string, o *options) (core.Store, error) {
	tempDir, _ := o.config["temp_dir"].(bool)
	autoInit, _ := o.config["auto_init"].(bool)
	buffer, _ := o.config["event_buffer"].(int)

	path := uri
	if tempDir {
		path = ResolveStorePath(uri, true)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "aquarium.db")
	} else if filepath.Ext(path) == "" {
		path = filepath.Join(path, "aquarium.db")
	}

	if autoInit {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
	}
	return sqlite.NewStore(sqlite.Config{Path: path, Logger: o.logger, Buffer: buffer}), nil
}
