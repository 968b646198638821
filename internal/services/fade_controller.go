package services

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// fadeSteps is the number of volume changes in one fade.
const fadeSteps = 20

// FadeController turns abrupt play/pause into volume fades on the active
// Spotify device and stops touching devices that refuse remote control.
type FadeController struct {
	player ports.PlaybackClient
	log    logrus.FieldLogger
	sleep  func(ctx context.Context, d time.Duration) error

	mu              sync.Mutex
	supportsControl bool
	remembered      int
	hasRemembered   bool
}

// NewFadeController creates a fade controller over player.
func NewFadeController(player ports.PlaybackClient, log logrus.FieldLogger) *FadeController {
	return &FadeController{
		player:          player,
		log:             log,
		sleep:           sleepContext,
		supportsControl: true,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SupportsControl reports whether the device still accepts volume changes.
// It turns false after the first restriction error and stays false.
func (f *FadeController) SupportsControl() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.supportsControl
}

// RememberedVolume returns the captured user volume, if any.
func (f *FadeController) RememberedVolume() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remembered, f.hasRemembered
}

// Forget clears the remembered volume. Called on disconnect.
func (f *FadeController) Forget() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remembered = 0
	f.hasRemembered = false
}

func (f *FadeController) markUnsupported() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.supportsControl {
		f.log.Info("device does not allow remote control, fades disabled")
	}
	f.supportsControl = false
}

// remember records v unless a volume is already known and returns the
// remembered value. A silent volume is recorded as domain.DefaultVolume.
func (f *FadeController) remember(v int) int {
	if v <= 0 {
		v = domain.DefaultVolume
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasRemembered {
		f.remembered = v
		f.hasRemembered = true
	}
	return f.remembered
}

// CaptureUserVolume records the device volume once per connected session.
func (f *FadeController) CaptureUserVolume(ctx context.Context) error {
	if _, ok := f.RememberedVolume(); ok {
		return nil
	}
	state, err := f.player.PlaybackState(ctx)
	if err != nil {
		return err
	}
	if state.Empty() {
		return nil
	}
	f.remember(state.Device.Volume)
	return nil
}

// Pause pauses playback immediately.
func (f *FadeController) Pause(ctx context.Context) error {
	if err := f.player.Pause(ctx); err != nil {
		f.log.WithError(err).Debug("pause failed")
		return err
	}
	return nil
}

// FadeOutAndPause steps the volume down to zero over d and pauses. Any
// failing step abandons the fade and pauses right away.
func (f *FadeController) FadeOutAndPause(ctx context.Context, d time.Duration) error {
	state, err := f.player.PlaybackState(ctx)
	if err != nil {
		f.log.WithError(err).Warn("failed to read playback state before fade-out")
		return f.Pause(ctx)
	}
	if state.Empty() || !state.IsPlaying {
		return nil
	}
	if !f.SupportsControl() || state.Device.Restricted {
		return f.Pause(ctx)
	}

	start := state.Device.Volume
	f.remember(start)
	if start <= 0 {
		return f.Pause(ctx)
	}

	interval := d / fadeSteps
	for i := 1; i <= fadeSteps; i++ {
		if err := f.sleep(ctx, interval); err != nil {
			return f.Pause(context.WithoutCancel(ctx))
		}
		vol := int(math.Round(float64(start) - float64(start)/fadeSteps*float64(i)))
		if err := f.player.SetVolume(ctx, vol); err != nil {
			if domain.IsRestricted(err) {
				f.markUnsupported()
			}
			f.log.WithError(err).WithField("step", i).Warn("fade-out step failed, pausing")
			return f.Pause(ctx)
		}
	}

	return f.Pause(ctx)
}

// PlayAndFadeIn resumes playback on deviceID (or the active device) with the
// volume rising from zero to the remembered volume over d.
func (f *FadeController) PlayAndFadeIn(ctx context.Context, d time.Duration, deviceID string) error {
	if !f.SupportsControl() {
		return nil
	}

	state, err := f.player.PlaybackState(ctx)
	if err != nil || state.Empty() {
		if err != nil {
			f.log.WithError(err).Debug("no playback state, resuming without fade")
		}
		return f.play(ctx, deviceID)
	}
	if state.Device.Restricted {
		return nil
	}

	current := state.Device.Volume
	initial := current
	if initial <= 0 {
		initial = domain.DefaultVolume
	}
	target := f.remember(initial)

	// Set the volume to itself first to check the device accepts volume calls.
	if err := f.player.SetVolume(ctx, current); err != nil {
		return f.abortFadeIn(ctx, err, target, deviceID)
	}
	if err := f.player.SetVolume(ctx, 0); err != nil {
		return f.abortFadeIn(ctx, err, target, deviceID)
	}
	if err := f.play(ctx, deviceID); err != nil {
		f.restore(ctx, target)
		return err
	}

	interval := d / fadeSteps
	for i := 1; i <= fadeSteps; i++ {
		if err := f.sleep(ctx, interval); err != nil {
			f.restore(context.WithoutCancel(ctx), target)
			return err
		}
		vol := int(math.Round(float64(target) / fadeSteps * float64(i)))
		if err := f.player.SetVolume(ctx, vol); err != nil {
			f.restore(ctx, target)
			if domain.IsRestricted(err) {
				f.markUnsupported()
				return nil
			}
			f.log.WithError(err).WithField("step", i).Warn("fade-in step failed")
			return err
		}
	}
	return nil
}

// abortFadeIn handles a failure before playback resumed. Restricted devices
// are marked and left alone, anything else falls back to a plain resume.
func (f *FadeController) abortFadeIn(ctx context.Context, err error, target int, deviceID string) error {
	f.restore(ctx, target)
	if domain.IsRestricted(err) {
		f.markUnsupported()
		return nil
	}
	f.log.WithError(err).Warn("fade-in failed, resuming without fade")
	return f.play(ctx, deviceID)
}

func (f *FadeController) restore(ctx context.Context, volume int) {
	if err := f.player.SetVolume(ctx, volume); err != nil {
		f.log.WithError(err).Debug("failed to restore volume")
	}
}

func (f *FadeController) play(ctx context.Context, deviceID string) error {
	if err := f.player.Play(ctx, deviceID); err != nil {
		f.log.WithError(err).Debug("resume failed")
		return err
	}
	return nil
}
