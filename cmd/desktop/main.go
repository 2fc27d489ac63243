package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/font/basicfont"

	"chip8go/pkg/asm"
	"chip8go/pkg/chip8"
	"chip8go/pkg/config"
	"chip8go/pkg/utils"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// keypadMap binds the left-hand block of a QWERTY keyboard to the 4×4 hex
// keypad, preserving its physical layout:
//
//	1 2 3 4        1 2 3 C
//	Q W E R   ->   4 5 6 D
//	A S D F        7 8 9 E
//	Z X C V        A 0 B F
var keypadMap = map[ebiten.Key]byte{
	ebiten.Key1: 0x1, ebiten.Key2: 0x2, ebiten.Key3: 0x3, ebiten.Key4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

// maxCyclesPerFrame caps how many VM cycles one Update may run when the
// frame budget never fills up, so a spinning program cannot stall the host.
const maxCyclesPerFrame = 20000

type gameState int

const (
	stateMenu gameState = iota
	stateRunning
)

type Game struct {
	cfg    *config.Settings
	logger *log.Logger

	state    gameState
	roms     []string
	selected int

	vm      *chip8.VM
	romName string

	canvas *ebiten.Image // reused 64×32 bitmap canvas
	fade   [chip8.DisplayPixels]float64
	beeper *beeper

	lastDraw time.Time
}

func (g *Game) Update() error {
	switch g.state {
	case stateMenu:
		return g.updateMenu()
	default:
		return g.updateRunning()
	}
}

func (g *Game) updateMenu() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && g.selected > 0 {
		g.selected--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && g.selected < len(g.roms)-1 {
		g.selected++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) && len(g.roms) > 0 {
		if err := g.loadROM(g.roms[g.selected]); err != nil {
			g.logger.Error("Loading ROM failed", log.Err(err))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) updateRunning() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.toMenu()
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.vm.Reset()
		return nil
	}

	for key, pad := range keypadMap {
		if inpututil.IsKeyJustPressed(key) {
			g.vm.KeyDown(pad)
		}
		if inpututil.IsKeyJustReleased(key) {
			g.vm.KeyUp(pad)
		}
	}

	// Run until the frame budget fills or the cycle cap is hit, whichever
	// comes first.
	for i := 0; i < maxCyclesPerFrame; i++ {
		res, err := g.vm.Cycle(time.Now())
		if err != nil {
			g.logger.Error("Machine fault",
				log.Err(err),
				log.String("instruction", asm.Disassemble(res.Opcode)),
				log.String("rom", g.romName))
			g.toMenu()
			return nil
		}
		if g.vm.DrawFlag {
			break
		}
	}

	g.beeper.set(g.vm.Buzzer())
	return nil
}

func (g *Game) loadROM(path string) error {
	program, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading ROM %q: %w", path, err)
	}

	vm, err := chip8.New(g.cfg.Chip8.VMSettings(), program)
	if err != nil {
		return fmt.Errorf("loading ROM %q: %w", path, err)
	}

	g.vm = vm
	g.romName = utils.ProgramName(path)
	g.fade = [chip8.DisplayPixels]float64{}
	g.state = stateRunning
	ebiten.SetWindowTitle("chip8go - " + g.romName)

	g.logger.Info("Running ROM",
		log.String("rom", g.romName),
		log.Int("bytes", len(program)))
	return nil
}

func (g *Game) toMenu() {
	g.state = stateMenu
	g.vm = nil
	g.beeper.set(false)
	ebiten.SetWindowTitle("chip8go")
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.state == stateMenu {
		g.drawMenu(screen)
		return
	}
	g.drawDisplay(screen)
	g.vm.DrawFlag = false
}

func (g *Game) drawMenu(screen *ebiten.Image) {
	screen.Fill(g.cfg.Window.Background())

	face := basicfont.Face7x13
	fg := g.cfg.Window.Foreground()

	text.Draw(screen, "chip8go - select a program (arrows + enter)", face, 16, 24, fg)
	if len(g.roms) == 0 {
		msg := fmt.Sprintf("no .ch8 files found in %q", g.cfg.Chip8.ProgramFolderPath)
		text.Draw(screen, msg, face, 16, 56, fg)
		return
	}

	for i, rom := range g.roms {
		marker := "  "
		if i == g.selected {
			marker = "> "
		}
		text.Draw(screen, marker+utils.ProgramName(rom), face, 16, 56+i*16, fg)
	}
}

// drawDisplay paints the frame buffer onto a 64×32 canvas and scales it to
// the window. With the flicker filter on, pixels fade from foreground to
// background over the configured duration instead of going dark instantly,
// which hides the flicker of sprites erased and redrawn every frame.
func (g *Game) drawDisplay(screen *ebiten.Image) {
	if g.canvas == nil {
		g.canvas = ebiten.NewImage(chip8.DisplayWidth, chip8.DisplayHeight)
	}

	now := time.Now()
	dt := now.Sub(g.lastDraw)
	g.lastDraw = now

	fg := g.cfg.Window.Foreground()
	bg := g.cfg.Window.Background()
	pixels := g.vm.FramebufferRGBA(fg, bg)

	if g.cfg.Window.SpriteFlickerFilter {
		decay := 1.0
		if fade := time.Duration(g.cfg.Window.PixelFadeMicros) * time.Microsecond; fade > 0 {
			decay = float64(dt) / float64(fade)
		}
		for i := range g.fade {
			if g.vm.FB[i] {
				g.fade[i] = 1
				continue
			}
			g.fade[i] -= decay
			if g.fade[i] < 0 {
				g.fade[i] = 0
			}
			t := g.fade[i]
			pixels[i*4+0] = lerp(bg.R, fg.R, t)
			pixels[i*4+1] = lerp(bg.G, fg.G, t)
			pixels[i*4+2] = lerp(bg.B, fg.B, t)
		}
	}

	g.canvas.WritePixels(pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(
		float64(g.cfg.Window.Width)/chip8.DisplayWidth,
		float64(g.cfg.Window.Height)/chip8.DisplayHeight,
	)
	screen.DrawImage(g.canvas, op)
}

// lerp blends a towards b by t in [0, 1].
func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}

func main() {
	configFile := flag.String("config", config.DefaultFile, "settings file to load")
	debug := flag.Bool("debug", false, "enable debug logging")
	quiet := flag.Bool("quiet", false, "only log errors")
	flag.Parse()

	logger := config.CreateLogger(*debug, *quiet)
	logger.Info("chip8go", log.String("version", buildinfo.Version(version, commit, date)))

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal(err.Error())
	}

	roms, err := utils.ListPrograms(cfg.Chip8.ProgramFolderPath)
	if err != nil {
		logger.Fatal(err.Error())
	}

	beeper, err := newBeeper(cfg.Sound)
	if err != nil {
		logger.Fatal(err.Error())
	}

	game := &Game{
		cfg:      cfg,
		logger:   logger,
		roms:     roms,
		beeper:   beeper,
		lastDraw: time.Now(),
	}

	// a ROM given on the command line skips the menu
	if romPath := flag.Arg(0); romPath != "" {
		if err := game.loadROM(romPath); err != nil {
			logger.Fatal(err.Error())
		}
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle("chip8go")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(cfg.Window.Fullscreen)

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal(err.Error())
	}
}
