package play

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Player hands finished takes to an external audio player. afplay ships
// with macOS, the others cover setups where FFmpeg came in via a package
// manager.
type Player struct{}

func New() *Player {
	return &Player{}
}

// Play blocks until the external player finishes or fails.
func (p *Player) Play(audioFile string) error {
	if _, err := os.Stat(audioFile); err != nil {
		return fmt.Errorf("audio file not found: %s", audioFile)
	}

	player, err := p.findAudioPlayer()
	if err != nil {
		return fmt.Errorf("no suitable audio player found: %w", err)
	}

	var cmd *exec.Cmd
	switch player {
	case "afplay":
		cmd = exec.Command("afplay", audioFile)
	case "ffplay":
		cmd = exec.Command("ffplay", "-nodisp", "-autoexit", audioFile)
	case "mpv":
		cmd = exec.Command("mpv", "--no-video", audioFile)
	case "vlc":
		cmd = exec.Command("vlc", "--play-and-exit", audioFile)
	default:
		return fmt.Errorf("unsupported player: %s", player)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playback failed with %s: %w", player, err)
	}

	return nil
}

func (p *Player) findAudioPlayer() (string, error) {
	// Preferred players in order; afplay is always present on macOS
	players := []string{"afplay", "ffplay", "mpv", "vlc"}

	for _, player := range players {
		if _, err := exec.LookPath(player); err == nil {
			return player, nil
		}
	}

	return "", fmt.Errorf("no audio player found (tried: %s)", strings.Join(players, ", "))
}
