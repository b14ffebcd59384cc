package processing

import (
	"context"
	"mediacat/storage"
	"os"

	"go.uber.org/zap"
)

const (
	frameName    = "tmp.jpg"
	h264Name     = "h264.mp4"
	vp9Name      = "vp9.mp4"
	passLogName  = "ffmpeg2pass"
	vp9Bitrate   = "2M"
	videoPixFmt  = "yuv420p"
	h264Profile  = "high"
	h264Level    = "5.1"
	vp9Container = "mp4"
)

// processVideo grabs a frame for the thumbnails, then encodes the H.264
// and VP9 derivatives and copies them to main
func (p *Processor) processVideo(ctx context.Context, store storage.FileStore, src string) error {
	frame, err := store.Temp().GetPath(frameName)
	if err != nil {
		return Error.Wrap(err)
	}
	if _, err := p.runner.Run(ctx, FrameTimeout, "ffmpeg", "-y", "-i", src,
		"-frames:v", "1", "-q:v", "1", "-f", "image2", frame); err != nil {
		return err
	}
	if err := generateThumbs(frame, store.Local()); err != nil {
		return err
	}

	h264, err := store.Temp().GetPath(h264Name)
	if err != nil {
		return Error.Wrap(err)
	}
	p.log.Debug("encoding h264", zap.String("src", src))
	if _, err := p.runner.Run(ctx, 0, "ffmpeg", "-y", "-i", src,
		"-c:v", "libx264", "-profile:v", h264Profile, "-level:v", h264Level, "-pix_fmt", videoPixFmt,
		"-c:a", "aac", "-movflags", "+faststart", h264); err != nil {
		return err
	}
	if err := store.CopyTempToMain(ctx, h264Name, h264Name); err != nil {
		return Error.Wrap(err)
	}

	vp9, err := store.Temp().GetPath(vp9Name)
	if err != nil {
		return Error.Wrap(err)
	}
	passLog, err := store.Temp().GetPath(passLogName)
	if err != nil {
		return Error.Wrap(err)
	}
	p.log.Debug("encoding vp9", zap.String("src", src))
	vp9Args := []string{"-c:v", "libvpx-vp9", "-b:v", vp9Bitrate, "-pix_fmt", videoPixFmt, "-passlogfile", passLog}
	firstPass := append([]string{"-y", "-i", src}, vp9Args...)
	firstPass = append(firstPass, "-pass", "1", "-an", "-f", "null", os.DevNull)
	if _, err := p.runner.Run(ctx, 0, "ffmpeg", firstPass...); err != nil {
		return err
	}
	secondPass := append([]string{"-y", "-i", src}, vp9Args...)
	secondPass = append(secondPass, "-pass", "2", "-c:a", "libvorbis", "-f", vp9Container, vp9)
	if _, err := p.runner.Run(ctx, 0, "ffmpeg", secondPass...); err != nil {
		return err
	}
	return Error.Wrap(store.CopyTempToMain(ctx, vp9Name, vp9Name))
}
