package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"
	"tjweldon/beatmaker/src/assistant"
	"tjweldon/beatmaker/src/capture"
	"tjweldon/beatmaker/src/config"
	"tjweldon/beatmaker/src/device"
	"tjweldon/beatmaker/src/presets"
	"tjweldon/beatmaker/src/synth"
	"tjweldon/beatmaker/src/timeline"
	"tjweldon/beatmaker/src/ui"
	"tjweldon/beatmaker/src/util"
)

var logger = util.Logger{Volume: util.Normal}.Ctx("main")

func main() {
	args, err := config.Load(os.Args[1:], os.Stdout)
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	args.Volume().FilterBelow()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := device.NewSpeaker(args.OutputRate(), args.BufferSize)
	defer out.Close()

	tl := timeline.New(out, args.Timeline())
	defer tl.Close()
	if grid, ok := args.Grid(); ok {
		tl.SetGrid(grid)
		logger.Log("snapping to", grid.Step())
	}

	var asker ui.Asker
	if args.AssistantURL != "" {
		asker = assistant.New(assistant.NewClient(args.AssistantURL, args.AssistantModel, args.AssistantTimeout))
	}

	rec := capture.NewRecorder(capture.Config{DeviceName: args.Mic})
	defer capture.Terminate()
	defer rec.Close()

	srv := ui.NewServer(tl, asker, rec)

	for _, path := range args.Samples {
		buf, err := capture.LoadWAV(path, args.OutputRate())
		if err != nil {
			logger.Log(err)
			continue
		}
		tl.AddBuffer(synth.MicrophoneCapture, filepath.Base(path), buf)
	}
	if args.Preset != "" {
		if _, err := presets.Apply(tl, args.Preset); err != nil {
			logger.Log(err)
		}
	}

	errs := make(chan error, 1)
	if args.Listen != "" {
		go func() { errs <- srv.ListenAndServe(ctx, args.Listen) }()
	} else {
		go srv.Run(ctx)
	}

	if args.Keyboard {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			go runKeyboard(ctx, cancel, srv, tl, rec)
		} else {
			logger.Log("stdin is not a terminal, keyboard controls disabled")
		}
	}

	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil {
			logger.Log(err)
		}
	}
	logger.Log("shutting down")
}
