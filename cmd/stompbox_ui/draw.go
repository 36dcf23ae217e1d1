package main

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/cbegin/stompbox-go"
	"github.com/cbegin/stompbox-go/internal/knob"
	"github.com/cbegin/stompbox-go/internal/scope"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

var (
	bgColor        = color.RGBA{192, 192, 192, 255}
	panelColor     = color.RGBA{192, 192, 192, 255}
	borderColor    = color.RGBA{128, 128, 128, 255}
	highlightColor = color.RGBA{0, 0, 128, 255}

	// 3D bevel colors for old-school embossed look.
	bevelLight  = color.RGBA{255, 255, 255, 255}
	bevelDarker = color.RGBA{64, 64, 64, 255}

	// Sunken panel / edit area interior.
	sunkenBgColor = color.RGBA{24, 24, 32, 255}

	knobBodyColor = color.RGBA{40, 40, 46, 255}
	knobRimColor  = color.RGBA{96, 96, 104, 255}
	knobHotColor  = color.RGBA{230, 120, 40, 255}
	arcOffColor   = color.RGBA{110, 110, 118, 255}
	arcOnColor    = color.RGBA{0, 0, 160, 255}
	pointerColor  = color.RGBA{255, 255, 255, 255}
	curveColor    = color.RGBA{255, 170, 60, 230}
	gridColor     = color.RGBA{40, 44, 58, 160}
)

var knobTitles = map[string]string{
	stompbox.KnobGain:   "GAIN",
	stompbox.KnobDrive:  "DRIVE",
	stompbox.KnobTone:   "TONE",
	stompbox.KnobOutput: "OUTPUT",
	stompbox.KnobType:   "TYPE",
}

// drawKnob draws a rotary control: the travel arc, the body and a pointer
// at the committed angle. Angles are screen-space degrees from +x, with the
// arc starting at 135 (lower left) and running clockwise.
func (g *game) drawKnob(screen *ebiten.Image, id string, c image.Point) {
	k := g.session.Knob(id)
	cx, cy := float64(c.X), float64(c.Y)
	r := float64(knobRadius)

	if k.Detented() {
		labels := k.Labels()
		for i, stop := range knob.Stops {
			a := (135 + stop) * math.Pi / 180
			col := arcOffColor
			if i == k.Value() {
				col = arcOnColor
			}
			ebitenutil.DrawRect(screen, cx+(r+12)*math.Cos(a)-4, cy+(r+12)*math.Sin(a)-4, 8, 8, col)
			// Stop caption: first letter of the label, outside the dot.
			if i < len(labels) && labels[i] != "" {
				tx := int(cx + (r+26)*math.Cos(a))
				ty := int(cy+(r+26)*math.Sin(a)) - lineH/2
				g.drawTextCentered(screen, labels[i][:1], tx, ty)
			}
		}
	} else {
		const dots = 40
		for i := 0; i <= dots; i++ {
			frac := float64(i) / dots
			a := (135 + frac*knob.ArcDegrees) * math.Pi / 180
			col := arcOffColor
			if frac <= k.Progress() {
				col = arcOnColor
			}
			ebitenutil.DrawRect(screen, cx+(r+10)*math.Cos(a)-2, cy+(r+10)*math.Sin(a)-2, 4, 4, col)
		}
	}

	rim := knobRimColor
	if k.Dragging() {
		rim = knobHotColor
	}
	ebitenutil.DrawCircle(screen, cx, cy, r+3, rim)
	ebitenutil.DrawCircle(screen, cx, cy, r, knobBodyColor)

	a := (135 + k.Angle()) * math.Pi / 180
	px, py := cx+(r-8)*math.Cos(a), cy+(r-8)*math.Sin(a)
	for _, o := range []float64{-1, 0, 1} {
		ebitenutil.DrawLine(screen, cx+o, cy, px+o, py, pointerColor)
		ebitenutil.DrawLine(screen, cx, cy+o, px, py+o, pointerColor)
	}

	g.drawTextCentered(screen, knobTitles[id], c.X, c.Y-int(r)-lineH-20)
	g.drawTextCentered(screen, k.Label(), c.X, c.Y+int(r)+22)
}

// drawCurve plots the active transfer curve over x in [-1,1].
func (g *game) drawCurve(screen *ebiten.Image, rect image.Rectangle) {
	g.drawText(screen, "CURVE", rect.Min.X+8, rect.Min.Y+6)
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+lineH+12, rect.Max.X-8, rect.Max.Y-8)
	w, h := inner.Dx(), inner.Dy()
	if w < 4 || h < 4 {
		return
	}
	midX := float64(inner.Min.X + w/2)
	midY := float64(inner.Min.Y + h/2)
	ebitenutil.DrawRect(screen, float64(inner.Min.X), midY, float64(w), 1, gridColor)
	ebitenutil.DrawRect(screen, midX, float64(inner.Min.Y), 1, float64(h), gridColor)

	c := g.session.CurrentCurve()
	if len(c) < 2 {
		return
	}
	half := float64(h)/2 - 2
	prevX := float64(inner.Min.X)
	prevY := midY - float64(c[0])*half
	for px := 1; px < w; px++ {
		i := px * (len(c) - 1) / (w - 1)
		x := float64(inner.Min.X + px)
		y := midY - float64(c[i])*half
		ebitenutil.DrawLine(screen, prevX, prevY, x, y, curveColor)
		prevX, prevY = x, y
	}
}

func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8, rect.Max.X-8, rect.Max.Y-8)
	width := inner.Dx()
	height := inner.Dy()
	if width <= 0 || height <= 0 {
		return
	}

	if g.scopeImg == nil || g.scopeW != width || g.scopeH != height {
		g.scopeW = width
		g.scopeH = height
		g.scopeImg = ebiten.NewImage(width, height)
	}
	g.scopeImg.Fill(color.RGBA{14, 16, 22, 255})

	snap := g.analyzer.Snapshot(fftSize, g.player.PositionSamples())

	waveH := int(float64(height) * 0.45)
	g.drawWaveform(g.scopeImg, snap, width, waveH)
	ebitenutil.DrawRect(g.scopeImg, 0, float64(waveH), float64(width), 1, color.RGBA{50, 54, 68, 180})
	specY := waveH + 1
	g.drawSpectrumBars(g.scopeImg, snap, width, height-specY, specY)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(inner.Min.X), float64(inner.Min.Y))
	screen.DrawImage(g.scopeImg, op)
}

func (g *game) drawWaveform(dst *ebiten.Image, samples []float32, width int, height int) {
	if len(samples) < 2 || width < 2 || height < 4 {
		return
	}
	midY := height / 2
	ebitenutil.DrawRect(dst, 0, float64(midY), float64(width), 1, color.RGBA{40, 44, 58, 100})

	// Auto-gain: track peak with fast attack, slow release.
	peak := float32(0)
	for _, s := range samples {
		peak = max(peak, float32(math.Abs(float64(s))))
	}
	target := max(float64(peak), 0.01)
	if target > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + target*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + target*0.005
	}
	g.wavePeak = max(g.wavePeak, 0.01)
	gain := float64(midY-2) / g.wavePeak

	off := scope.ZeroCrossing(samples, len(samples)/4)
	points := scope.Waveform(samples[off:], width)
	waveColor := color.RGBA{80, 200, 255, 220}
	for px := 1; px < len(points); px++ {
		y0 := float64(midY) - float64(points[px-1])*gain
		y1 := float64(midY) - float64(points[px])*gain
		ebitenutil.DrawLine(dst, float64(px-1), y0, float64(px), y1, waveColor)
	}
}

func (g *game) drawSpectrumBars(dst *ebiten.Image, samples []float32, width int, height int, yOffset int) {
	if width < 4 || height < 4 {
		return
	}
	numBars := max(16, min(256, width/3))
	if len(g.specBins) != numBars {
		g.specBins = make([]float64, numBars)
	}
	for i, norm := range g.spectrum.Bands(samples, numBars) {
		// Smooth: fast attack, slower decay.
		prev := g.specBins[i]
		if norm > prev {
			g.specBins[i] = prev*0.3 + norm*0.7
		} else {
			g.specBins[i] = prev*0.85 + norm*0.15
		}
	}

	barW := float64(width) / float64(numBars)
	for i, v := range g.specBins {
		barH := max(1, v*float64(height-4))
		x := float64(i) * barW
		y := float64(yOffset) + float64(height-2) - barH
		r, gr, b := spectrumColor(v)
		ebitenutil.DrawRect(dst, x+1, y, barW-1, barH, color.RGBA{r, gr, b, 220})
	}
}

// spectrumColor runs blue at the bottom through green to orange/red at the top.
func spectrumColor(v float64) (uint8, uint8, uint8) {
	if v < 0.33 {
		t := v / 0.33
		return uint8(30 + 20*t), uint8(80 + 120*t), uint8(200 + 55*t)
	}
	if v < 0.66 {
		t := (v - 0.33) / 0.33
		return uint8(50 + 140*t), uint8(200 + 30*t), uint8(255 - 100*t)
	}
	t := (v - 0.66) / 0.34
	return uint8(190 + 65*t), uint8(230 - 100*t), uint8(155 - 100*t)
}

func (g *game) drawPresets(screen *ebiten.Image, l uiLayout) {
	g.drawSunkenPanel(screen, l.name)
	maxChars := max(4, (l.name.Dx()-16)/charW)
	label := string(g.name)
	switch {
	case g.nameFocus:
		label += "_"
	case label == "":
		label = "preset name"
	}
	g.drawText(screen, shortenStart(label, maxChars), l.name.Min.X+8, l.name.Min.Y+6)

	g.drawSunkenPanel(screen, l.list)
	if len(g.presets) == 0 {
		g.drawText(screen, "No saved presets", l.list.Min.X+8, l.list.Min.Y+8)
		return
	}
	rowH := lineH * 2
	rows := (l.list.Dy() - 12) / rowH
	maxChars = max(4, (l.list.Dx()-16)/charW)
	for row := 0; row < rows; row++ {
		i := g.listTop + row
		if i >= len(g.presets) {
			break
		}
		p := g.presets[i]
		y := l.list.Min.Y + 6 + row*rowH
		if i == g.selected {
			ebitenutil.DrawRect(screen, float64(l.list.Min.X+4), float64(y), float64(l.list.Dx()-8), float64(rowH), highlightColor)
		}
		g.drawText(screen, shortenEnd(fmt.Sprintf("%d. %s", i+1, p.Name), maxChars), l.list.Min.X+8, y)
		s := p.Settings
		detail := fmt.Sprintf("%s %d/%d/%d/%d", s.DistortionType, s.Gain, s.Drive, s.Tone, s.Output)
		g.drawText(screen, shortenEnd(detail, maxChars), l.list.Min.X+8+charW*2, y+lineH)
	}
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawDarkPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), color.RGBA{0, 0, 0, 255})
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
	g.drawTextCentered(screen, label, rect.Min.X+rect.Dx()/2, rect.Min.Y+(rect.Dy()-lineH)/2)
}

// drawBorder draws a raised 3D bevel (highlight top/left, shadow bottom/right).
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder draws a sunken 3D bevel (shadow top/left, highlight bottom/right).
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

func (g *game) drawTextCentered(screen *ebiten.Image, msg string, cx int, y int) {
	g.drawText(screen, msg, cx-len([]rune(msg))*charW/2, y)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 1000 {
			g.textCache = make(map[string]*ebiten.Image, 256)
		}
		g.textCache[msg] = img
	}
	// Embossed shadow (dark offset behind text).
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

// shortenStart keeps the tail of s, for text fields that grow at the end.
func shortenStart(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[len(r)-maxChars:])
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}
