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
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/stompbox-go"
	"github.com/cbegin/stompbox-go/internal/audio"
	"github.com/cbegin/stompbox-go/internal/capture"
	"github.com/cbegin/stompbox-go/internal/curve"
	"github.com/cbegin/stompbox-go/internal/preset"
	"github.com/cbegin/stompbox-go/internal/wavfile"
)

func main() {
	var (
		sampleRate   = flag.Int("sample-rate", 48000, "sample rate for live monitoring")
		gain         = flag.Int("gain", 50, "input gain (0-100)")
		drive        = flag.Int("drive", 50, "drive (0-100)")
		tone         = flag.Int("tone", 50, "tone (0-100)")
		output       = flag.Int("output", 50, "output level (0-100)")
		typeName     = flag.String("type", "soft", "distortion type: soft|hard|fuzz|overdrive")
		presetName   = flag.String("preset", "", "start from the named preset; explicit flags override it")
		savePreset   = flag.String("save-preset", "", "save the resulting settings under this name")
		listPresets  = flag.Bool("list-presets", false, "list saved presets and exit")
		deletePreset = flag.Int("delete-preset", -1, "delete the preset at this index and exit")
		presetsDir   = flag.String("presets", preset.DefaultDir, "preset directory")
		outPath      = flag.String("out", "", "output directory, or output .wav file for a single input")
		play         = flag.Bool("play", false, "play the processed result; with no inputs, monitor the default input device")
		overdrive    = flag.String("overdrive", "clamp", "overdrive amount policy: clamp|reject")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: stompbox [flags] [input.wav ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	backend, err := preset.NewFileBackend(*presetsDir)
	if err != nil {
		log.Fatal(err)
	}
	store := preset.NewStore(backend)

	if *listPresets {
		if err := printPresets(store); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *deletePreset >= 0 {
		p, err := store.Delete(*deletePreset)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("deleted %q\n", p.Name)
		return
	}

	policy, err := parsePolicy(*overdrive)
	if err != nil {
		log.Fatal(err)
	}
	settings := preset.Defaults()
	if *presetName != "" {
		p, _, err := store.Find(*presetName)
		if err != nil {
			log.Fatal(err)
		}
		settings = p.Settings
	}
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gain":
			settings.Gain = *gain
		case "drive":
			settings.Drive = *drive
		case "tone":
			settings.Tone = *tone
		case "output":
			settings.Output = *output
		case "type":
			t, err := curve.ParseType(*typeName)
			if err != nil {
				flagErr = fmt.Errorf("invalid -type: %w", err)
			}
			settings.DistortionType = t
		}
	})
	if flagErr != nil {
		log.Fatal(flagErr)
	}
	if err := settings.Validate(); err != nil {
		log.Fatal(err)
	}

	if *savePreset != "" {
		p, err := store.Save(*savePreset, settings)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("saved %q (%s)\n", p.Name, p.Timestamp)
	}

	opts := []stompbox.SessionOption{
		stompbox.WithSettings(settings),
		stompbox.WithOverdrivePolicy(policy),
		stompbox.WithLogger(log.Default()),
	}
	inputs := flag.Args()
	if len(inputs) == 0 {
		if *play {
			if err := monitor(*sampleRate, opts); err != nil {
				log.Fatal(err)
			}
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, in := range inputs {
		out, err := outputFor(in, *outPath, len(inputs), settings.DistortionType)
		if err != nil {
			log.Fatal(err)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := stompbox.RenderFile(in, out, opts...); err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", in, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	if *play {
		for _, in := range inputs {
			if err := playFile(ctx, in, opts); err != nil {
				log.Fatal(err)
			}
		}
	}
}

func printPresets(store *preset.Store) error {
	list, err := store.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no presets saved")
		return nil
	}
	for i, p := range list {
		s := p.Settings
		fmt.Printf("%2d  %-20s %s  gain=%d drive=%d tone=%d output=%d type=%s\n",
			i, p.Name, p.Timestamp, s.Gain, s.Drive, s.Tone, s.Output, s.DistortionType)
	}
	return nil
}

func parsePolicy(name string) (curve.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "clamp":
		return curve.PolicyClamp, nil
	case "reject":
		return curve.PolicyReject, nil
	default:
		return 0, fmt.Errorf("invalid -overdrive %q (expected clamp|reject)", name)
	}
}

// outputFor names the rendered file for input. A .wav -out is used as is
// for a single input; otherwise -out is a directory, defaulting to the
// input's own.
func outputFor(input, out string, inputs int, t curve.Type) (string, error) {
	if strings.EqualFold(filepath.Ext(out), ".wav") {
		if inputs > 1 {
			return "", errors.New("-out names a file but there are several inputs")
		}
		return out, nil
	}
	dir := out
	if dir == "" {
		dir = filepath.Dir(input)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, fmt.Sprintf("%s_%s.wav", base, strings.ToLower(t.String()))), nil
}

func playFile(ctx context.Context, path string, opts []stompbox.SessionOption) error {
	clip, err := wavfile.Read(path)
	if err != nil {
		return err
	}
	s, err := stompbox.NewSession(clip.SampleRate, opts...)
	if err != nil {
		return err
	}
	src := audio.NewClipSource(clip.Samples, s.Process)
	pl, err := audio.NewPlayer(clip.SampleRate, src)
	if err != nil {
		return err
	}
	defer pl.Stop()
	fmt.Printf("playing %s\n", path)
	pl.Play()
	return waitPlaying(ctx, pl)
}

// monitor runs the default input device through the pedal until interrupted.
func monitor(sampleRate int, opts []stompbox.SessionOption) error {
	in, err := capture.Open(sampleRate, 512)
	if err != nil {
		if errors.Is(err, capture.ErrUnavailable) {
			return fmt.Errorf("%w (rebuild with -tags portaudio for live input)", err)
		}
		return err
	}
	defer in.Close()
	s, err := stompbox.NewSession(sampleRate, opts...)
	if err != nil {
		return err
	}
	pl, err := audio.NewPlayer(sampleRate, &liveSource{in: in, session: s})
	if err != nil {
		return err
	}
	defer pl.Stop()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Println("monitoring input, ^C to stop")
	pl.Play()
	<-ctx.Done()
	return nil
}

func waitPlaying(ctx context.Context, pl *audio.Player) error {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for pl.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}

type liveSource struct {
	in      *capture.Input
	session *stompbox.Session
}

func (l *liveSource) Process(dst []float32) {
	l.in.Process(dst)
	l.session.Process(dst)
}
