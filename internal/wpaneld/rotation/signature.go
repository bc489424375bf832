package rotation

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Identity hashes the ordered action and item ids. Two contents with the
// same identity keep the rotation position across a refresh.
func Identity(actions []Action) uint64 {
	d := xxhash.New()
	for _, a := range actions {
		d.WriteString(a.ID)
		d.WriteString(fieldSep)
		for _, it := range a.Items {
			d.WriteString(it.ID)
			d.WriteString(fieldSep)
		}
		d.WriteString(recordSep)
	}
	return d.Sum64()
}

// Fingerprint hashes everything a renderer can see: identity plus names,
// ordinals, media refs, payloads and panel config. A refresh whose
// fingerprint matches the last applied one is discarded.
func Fingerprint(c Content) uint64 {
	d := xxhash.New()
	for _, a := range c.Actions {
		d.WriteString(a.ID)
		d.WriteString(fieldSep)
		d.WriteString(a.Name)
		d.WriteString(fieldSep)
		d.WriteString(strconv.FormatBool(a.Bordered))
		d.WriteString(fieldSep)
		for _, it := range a.Items {
			d.WriteString(it.ID)
			d.WriteString(fieldSep)
			d.WriteString(strconv.Itoa(it.Ordinal))
			d.WriteString(fieldSep)
			d.WriteString(it.Title)
			d.WriteString(fieldSep)
			d.WriteString(it.MediaRef)
			d.WriteString(fieldSep)
			d.Write(it.Payload)
			d.WriteString(fieldSep)
		}
		d.WriteString(recordSep)
	}
	if cfg := c.Config; cfg != nil {
		d.WriteString(strconv.FormatInt(int64(cfg.PollingInterval), 10))
		d.WriteString(fieldSep)
		d.WriteString(strconv.FormatInt(int64(cfg.RotationInterval), 10))
		d.WriteString(fieldSep)
		d.WriteString(cfg.Title)
		d.WriteString(fieldSep)
		d.WriteString(cfg.FooterText)
	}
	return d.Sum64()
}
