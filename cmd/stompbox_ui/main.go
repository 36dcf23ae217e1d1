package main

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cbegin/stompbox-go"
	"github.com/cbegin/stompbox-go/internal/audio"
	"github.com/cbegin/stompbox-go/internal/capture"
	"github.com/cbegin/stompbox-go/internal/preset"
	"github.com/cbegin/stompbox-go/internal/record"
	"github.com/cbegin/stompbox-go/internal/scope"
	"github.com/cbegin/stompbox-go/internal/wavfile"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	windowW      = 1100
	windowH      = 720
	minWindowW   = 1000
	minWindowH   = 680
	uiSampleRate = 48000

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	fftSize       = 2048
	knobRadius    = 46
	maxNameLength = 24
)

type game struct {
	session  *stompbox.Session
	events   <-chan stompbox.ControlEvent
	player   *audio.Player
	input    *capture.Input
	loop     *audio.LoopSource // nil when monitoring live input
	analyzer *scope.Analyzer
	spectrum *scope.Spectrum
	recorder *record.Recorder
	takeDir  string

	scopeImg *ebiten.Image
	scopeW   int
	scopeH   int
	// Smoothed spectrum bands for display (0..1 range).
	specBins []float64
	wavePeak float64

	active string // id of the knob being dragged

	presets   []preset.Preset
	selected  int
	listTop   int
	name      []rune
	nameFocus bool

	source    string
	status    string
	statusErr bool

	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(wavPath, presetsDir, takeDir string) (*game, error) {
	backend, err := preset.NewFileBackend(presetsDir)
	if err != nil {
		return nil, err
	}
	g := &game{
		takeDir:   takeDir,
		selected:  -1,
		textCache: make(map[string]*ebiten.Image, 256),
		viewW:     windowW,
		viewH:     windowH,
	}

	sampleRate := uiSampleRate
	var clip *wavfile.Clip
	in, err := capture.Open(uiSampleRate, 512)
	switch {
	case err == nil:
		g.input = in
		g.source = "input device"
	case wavPath != "":
		clip, err = wavfile.Read(wavPath)
		if err != nil {
			return nil, err
		}
		sampleRate = clip.SampleRate
		g.source = filepath.Base(wavPath)
	case errors.Is(err, capture.ErrUnavailable):
		g.source = "no input"
	default:
		return nil, err
	}

	g.analyzer = scope.NewAnalyzer(sampleRate)
	g.recorder = record.New(sampleRate)
	g.spectrum, err = scope.NewSpectrum(fftSize, sampleRate)
	if err != nil {
		return nil, err
	}
	g.session, err = stompbox.NewSession(sampleRate,
		stompbox.WithStore(preset.NewStore(backend)),
		stompbox.WithSampleTap(g.analyzer.Tap),
		stompbox.WithSampleTap(g.recorder.Tap),
		stompbox.WithLogger(log.Default()),
	)
	if err != nil {
		return nil, err
	}
	g.events = g.session.Watch()

	var src audio.SampleSource
	switch {
	case g.input != nil:
		src = &liveSource{in: g.input, session: g.session}
	case clip != nil:
		g.loop = audio.NewLoopSource(clip.Samples, g.session.Process)
		src = g.loop
	default:
		g.loop = audio.NewLoopSource(nil, g.session.Process)
		src = g.loop
	}
	g.player, err = audio.NewPlayer(sampleRate, src)
	if err != nil {
		return nil, err
	}
	g.player.Play()

	if err := g.refreshPresets(); err != nil {
		g.setError(err.Error())
	} else {
		g.setStatus("Ready: " + g.source)
	}
	return g, nil
}

type liveSource struct {
	in      *capture.Input
	session *stompbox.Session
}

func (l *liveSource) Process(dst []float32) {
	l.in.Process(dst)
	l.session.Process(dst)
}

func (g *game) Update() error {
	g.pollEvents()
	g.handleKeys()
	g.handleMouse()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := g.layoutRects()

	g.drawPanel(screen, l.pedal)
	for i, id := range stompbox.KnobIDs {
		g.drawKnob(screen, id, l.knobs[i])
	}
	g.drawDarkPanel(screen, l.curve)
	g.drawCurve(screen, l.curve)
	g.drawDarkPanel(screen, l.scope)
	g.drawScope(screen, l.scope)
	g.drawPresets(screen, l)

	g.drawButton(screen, l.record, g.recordLabel())
	g.drawButton(screen, l.reset, "Reset")
	g.drawButton(screen, l.save, "Save")
	g.drawButton(screen, l.load, "Load")
	g.drawButton(screen, l.remove, "Delete")
	g.drawSunkenPanel(screen, l.status)
	g.drawStatus(screen, l.status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW < minWindowW {
		outsideW = minWindowW
	}
	if outsideH < minWindowH {
		outsideH = minWindowH
	}
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) Close() {
	_ = g.player.Stop()
	if g.input != nil {
		_ = g.input.Close()
	}
}

func (g *game) pollEvents() {
	for {
		select {
		case ev, ok := <-g.events:
			if !ok {
				return
			}
			g.setStatus(fmt.Sprintf("%s: %s", strings.ToUpper(ev.ControlID), ev.Label))
		default:
			return
		}
	}
}

func (g *game) handleKeys() {
	if !g.nameFocus {
		return
	}
	g.name = ebiten.AppendInputChars(g.name)
	if len(g.name) > maxNameLength {
		g.name = g.name[:maxNameLength]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(g.name) > 0 {
		g.name = g.name[:len(g.name)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.savePreset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.nameFocus = false
	}
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.nameFocus = pointInRect(mx, my, l.name)
		switch {
		case g.pressKnob(mx, my, l):
		case pointInRect(mx, my, l.record):
			g.toggleRecording()
		case pointInRect(mx, my, l.reset):
			if err := g.session.Reset(); err != nil {
				g.setError(err.Error())
			} else {
				g.session.ResetState()
				g.setStatus("Defaults restored")
			}
		case pointInRect(mx, my, l.save):
			g.savePreset()
		case pointInRect(mx, my, l.load):
			g.loadPreset()
		case pointInRect(mx, my, l.remove):
			g.deletePreset()
		case pointInRect(mx, my, l.list):
			g.clickPresetList(my, l.list)
		}
	}
	// Release is global: the pointer may leave the knob while dragging.
	if g.active != "" && !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.session.Knob(g.active).Release()
		g.active = ""
	}
	if g.active != "" {
		c := l.knobs[indexOf(g.active)]
		if _, err := g.session.Move(g.active, float64(mx-c.X), float64(my-c.Y)); err != nil {
			g.setError(err.Error())
		}
	}

	_, wy := ebiten.Wheel()
	if wy != 0 && pointInRect(mx, my, l.list) {
		g.listTop -= int(wy)
		g.listTop = max(0, min(g.listTop, len(g.presets)-1))
	}
}

// pressKnob starts a drag when the pointer lands on a knob body.
func (g *game) pressKnob(mx, my int, l uiLayout) bool {
	for i, id := range stompbox.KnobIDs {
		c := l.knobs[i]
		dx, dy := mx-c.X, my-c.Y
		if dx*dx+dy*dy > (knobRadius+8)*(knobRadius+8) {
			continue
		}
		g.active = id
		g.session.Knob(id).Press()
		g.session.Move(id, float64(dx), float64(dy))
		return true
	}
	return false
}

func indexOf(id string) int {
	for i, k := range stompbox.KnobIDs {
		if k == id {
			return i
		}
	}
	return 0
}

func (g *game) toggleRecording() {
	if g.recorder.State() != record.Recording {
		// A take of the loop starts at the top of the clip with a clean filter.
		if g.loop != nil {
			g.loop.Rewind()
			g.session.ResetState()
		}
		if err := g.recorder.Start(); err != nil {
			g.setError(err.Error())
			return
		}
		g.setStatus("Recording...")
		return
	}
	if _, err := g.recorder.Stop(); err != nil {
		g.setError(err.Error())
		return
	}
	path := filepath.Join(g.takeDir, "stompbox-"+time.Now().Format("20060102-150405")+".wav")
	if err := g.recorder.WriteTo(path); err != nil {
		g.setError(err.Error())
		return
	}
	g.setStatus(fmt.Sprintf("Recording complete (%.1fs): %s", g.recorder.Duration(), path))
}

func (g *game) recordLabel() string {
	if g.recorder.State() == record.Recording {
		return "Stop"
	}
	return "Record"
}

func (g *game) savePreset() {
	name := strings.TrimSpace(string(g.name))
	if name == "" {
		g.nameFocus = true
		g.setError("Type a preset name first")
		return
	}
	p, err := g.session.SavePreset(name)
	if err != nil {
		g.setError(err.Error())
		return
	}
	g.name = g.name[:0]
	g.nameFocus = false
	g.selected = 0
	g.listTop = 0
	if err := g.refreshPresets(); err != nil {
		g.setError(err.Error())
		return
	}
	g.setStatus(fmt.Sprintf("%q saved", p.Name))
}

func (g *game) loadPreset() {
	if g.selected < 0 {
		g.setError("Select a preset")
		return
	}
	p, err := g.session.LoadPreset(g.selected)
	if err != nil {
		g.setError(err.Error())
		return
	}
	g.setStatus(fmt.Sprintf("%q loaded", p.Name))
}

func (g *game) deletePreset() {
	if g.selected < 0 {
		g.setError("Select a preset")
		return
	}
	p, err := g.session.DeletePreset(g.selected)
	if err != nil {
		g.setError(err.Error())
		return
	}
	g.selected = -1
	if err := g.refreshPresets(); err != nil {
		g.setError(err.Error())
		return
	}
	g.setStatus(fmt.Sprintf("%q deleted", p.Name))
}

func (g *game) refreshPresets() error {
	list, err := g.session.Presets()
	if err != nil {
		return err
	}
	g.presets = list
	if g.selected >= len(list) {
		g.selected = len(list) - 1
	}
	if g.listTop >= len(list) {
		g.listTop = max(0, len(list)-1)
	}
	return nil
}

func (g *game) clickPresetList(my int, rect image.Rectangle) {
	row := (my-rect.Min.Y-6)/(lineH*2) + g.listTop
	if row >= 0 && row < len(g.presets) {
		g.selected = row
	}
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

type uiLayout struct {
	pedal                image.Rectangle
	knobs                [5]image.Point
	curve, scope, list   image.Rectangle
	name                 image.Rectangle
	record, reset, save  image.Rectangle
	load, remove, status image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w := max(g.viewW, minWindowW)
	h := max(g.viewH, minWindowH)

	pad := 20
	rowH := 44
	statusH := 40
	statusTop := h - pad - statusH
	controlsTop := statusTop - 8 - rowH

	var l uiLayout
	l.pedal = image.Rect(pad, pad, w-pad, pad+250)
	slot := l.pedal.Dx() / len(stompbox.KnobIDs)
	for i := range l.knobs {
		l.knobs[i] = image.Pt(l.pedal.Min.X+slot*i+slot/2, l.pedal.Min.Y+120)
	}

	midTop := l.pedal.Max.Y + 12
	midBottom := controlsTop - 12
	presetW := 320
	l.curve = image.Rect(pad, midTop, pad+240, midBottom)
	l.scope = image.Rect(l.curve.Max.X+12, midTop, w-pad-presetW-12, midBottom)
	l.name = image.Rect(w-pad-presetW, midTop, w-pad, midTop+lineH+12)
	l.list = image.Rect(w-pad-presetW, l.name.Max.Y+8, w-pad, midBottom)

	bw := 130
	x := pad
	next := func() image.Rectangle {
		r := image.Rect(x, controlsTop, x+bw, controlsTop+rowH)
		x += bw + 12
		return r
	}
	l.record = next()
	l.reset = next()
	l.save = next()
	l.load = next()
	l.remove = next()
	l.status = image.Rect(pad, statusTop, w-pad, statusTop+statusH)
	return l
}

func main() {
	var wavPath string
	if len(os.Args) > 1 {
		p, err := filepath.Abs(os.Args[1])
		if err != nil {
			log.Fatalf("resolve %q: %v", os.Args[1], err)
		}
		wavPath = p
	}
	takeDir, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	g, err := newGame(wavPath, preset.DefaultDir, takeDir)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("stompbox")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
