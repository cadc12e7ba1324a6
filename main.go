package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"gdide/api"
	"gdide/app"
	eventeditor "gdide/event_editor"
	"gdide/storage"
	"gdide/typedef"

	// hideconsole
	_ "github.com/ebitengine/hideconsole"
)

const version = "0.3.0"

func main() {
	var (
		showVersion   bool
		lang          string
		allowMultiple bool
		noCrashCheck  bool
		headless      bool
		emitPath      string
		snapshotOut   string
		snapshotWidth int
	)
	flag.BoolVar(&showVersion, "version", false, "Print the version and exit")
	flag.StringVar(&lang, "lang", "", "Language of the editor (en, fr, de)")
	flag.BoolVar(&allowMultiple, "allowMultipleInstances", false, "Do not forward files to an already running editor")
	flag.BoolVar(&noCrashCheck, "noCrashCheck", false, "Skip the recovery of scenes after a crash")
	flag.BoolVar(&headless, "headless", false, "Serve code generation requests without a window")
	flag.StringVar(&emitPath, "emit", "", "Print the generated code of a scene file and exit")
	flag.StringVar(&snapshotOut, "snapshot", "", "Render the events of the scene file given as argument to a PNG file and exit")
	flag.IntVar(&snapshotWidth, "snapshotWidth", 800, "Width of the -snapshot image")
	flag.Parse()

	if showVersion {
		fmt.Println("gdide", version)
		return
	}

	cfg, err := storage.LoadConfig()
	if err != nil {
		log.Printf("[MAIN] %v", err)
	}
	if lang != "" {
		cfg.Language = lang
	}
	renderCfg := app.RenderConfig(cfg)

	switch {
	case emitPath != "":
		if err := emitCode(os.Stdout, emitPath, renderCfg, stdoutIsTerminal()); err != nil {
			log.Fatalf("[MAIN] %v", err)
		}
		return
	case snapshotOut != "":
		if flag.NArg() != 1 {
			log.Fatal("[MAIN] -snapshot needs exactly one scene file")
		}
		if err := writeSnapshot(snapshotOut, flag.Arg(0), renderCfg, snapshotWidth); err != nil {
			log.Fatalf("[MAIN] %v", err)
		}
		return
	}

	lockPath := storage.DataFile(".gdide.lock")
	_, lockOwned, cleanupLock, err := prepareLock(lockPath)
	if err != nil {
		log.Fatalf("[MAIN] lock: %v", err)
	}
	defer cleanupLock()

	if !lockOwned && !allowMultiple && !cfg.AllowMultipleInstances {
		if forwardToRunningEditor(flag.Args()) {
			return
		}
		// Nobody answered: the lock is stale.
		log.Printf("[MAIN] removing stale lock %s", lockPath)
		cleanupLock()
		_ = os.Remove(lockPath)
		_, lockOwned, cleanupLock, err = prepareLock(lockPath)
		if err != nil {
			log.Fatalf("[MAIN] lock: %v", err)
		}
		defer cleanupLock()
	}

	if headless {
		runHeadless(cleanupLock)
		return
	}
	runWithGUI(cfg, lockOwned, noCrashCheck, cleanupLock)
}

func prepareLock(lockPath string) (*os.File, bool, func(), error) {
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	owned := true
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			owned = false
			lockFile, err = os.OpenFile(lockPath, os.O_WRONLY, 0o644)
			if err != nil {
				return nil, false, nil, err
			}
		} else {
			return nil, false, nil, err
		}
	}

	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			if lockFile != nil {
				_ = lockFile.Close()
			}
			if owned {
				os.Remove(lockPath)
			}
		})
	}

	return lockFile, owned, cleanup, nil
}

// forwardToRunningEditor hands the files to the editor owning the lock.
// It reports whether that editor accepted them.
func forwardToRunningEditor(paths []string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := api.Dial(ctx, api.DefaultAddr)
	if err != nil {
		log.Printf("[MAIN] no running editor answers: %v", err)
		return false
	}
	defer c.Close()
	if len(paths) == 0 {
		log.Printf("[MAIN] an editor is already running")
		return true
	}
	if err := c.OpenFiles(ctx, paths); err != nil {
		log.Printf("[MAIN] forwarding files failed: %v", err)
		return false
	}
	log.Printf("[MAIN] forwarded %d file(s) to the running editor", len(paths))
	return true
}

// generateFile is the code generation served to other processes.
func generateFile(path string) (string, error) {
	scene, tree, err := storage.LoadScene(path)
	if err != nil {
		return "", err
	}
	return eventeditor.GenerateCode(tree, scene, typedef.StandardMetadata()), nil
}

func runHeadless(cleanup func()) {
	fmt.Println("Starting gdide in headless mode...")

	server := api.NewServer(generateFile)
	defer server.Close()
	addr, err := server.Start(api.DefaultAddr)
	if err != nil {
		log.Fatalf("[MAIN] %v", err)
	}
	fmt.Printf("WebSocket API is available at ws://%s/ws\n", addr)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		// Forwarded files have no window to open in.
		for paths := range server.Files() {
			log.Printf("[MAIN] ignoring %d forwarded file(s) in headless mode", len(paths))
		}
	}()

	<-sigChan
	fmt.Println("Received shutdown signal. Cleaning up...")
	cleanup()
	fmt.Println("Shutdown complete.")
}

func runWithGUI(cfg *storage.EditorConfig, lockOwned, noCrashCheck bool, cleanup func()) {
	var files <-chan []string
	if lockOwned {
		server := api.NewServer(generateFile)
		defer server.Close()
		if _, err := server.Start(api.DefaultAddr); err != nil {
			log.Printf("[MAIN] IPC disabled: %v", err)
		} else {
			files = server.Files()
		}
	}

	var restored []storage.Dump
	if !noCrashCheck {
		restored = recoverDumps()
	}
	if err := storage.MarkRunning(version); err != nil {
		log.Printf("[MAIN] failed to write running marker: %v", err)
	}

	exit := func() {
		if err := storage.ClearRunning(); err != nil {
			log.Printf("[MAIN] %v", err)
		}
		cleanup()
	}

	if err := app.InitClipboard(); err != nil {
		log.Printf("[MAIN] %v", err)
	}
	app.InitPanicNotifier(exit)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		fmt.Println("Received shutdown signal. Cleaning up...")
		exit()
		os.Exit(0)
	}()

	editor := app.New(app.Options{Config: cfg, Files: files, OnExit: exit})
	if n := editor.RestoreDumps(restored); n < len(restored) {
		log.Printf("[MAIN] %d crash dump(s) could not be restored and were kept", len(restored)-n)
	}
	for _, p := range flag.Args() {
		if err := editor.OpenFile(p); err != nil {
			log.Printf("[MAIN] cannot open %s: %v", filepath.Clean(p), err)
		}
	}

	if err := editor.Run(); err != nil {
		exit()
		panic(err)
	}
}

// recoverDumps returns the scenes to restore when the previous session
// crashed.
func recoverDumps() []storage.Dump {
	crashed, info, err := storage.CheckPreviousCrash()
	if err != nil {
		log.Printf("[MAIN] crash check: %v", err)
		return nil
	}
	if !crashed {
		return nil
	}
	if info != nil {
		log.Printf("[MAIN] the editor started %s (pid %d) did not exit cleanly", info.Started.Format(time.RFC3339), info.PID)
	}
	dumps, err := storage.ReadDumps()
	if err != nil {
		log.Printf("[MAIN] reading dumps: %v", err)
		return nil
	}
	return dumps
}
