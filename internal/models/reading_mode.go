package models

// ReadingMode selects how a book is narrated
type ReadingMode int

const (
	ModeSilent ReadingMode = iota
	ModeAudioManual
	ModeAudioAuto
)

// ReadingModes lists every mode in menu order
var ReadingModes = []ReadingMode{ModeSilent, ModeAudioManual, ModeAudioAuto}

var modeLabels = map[ReadingMode]string{
	ModeSilent:      "Silent",
	ModeAudioManual: "Audio (manual)",
	ModeAudioAuto:   "Audio (auto)",
}

var modeIcons = map[ReadingMode]string{
	ModeSilent:      "🔇",
	ModeAudioManual: "🔊",
	ModeAudioAuto:   "⏯",
}

var modeKeys = map[ReadingMode]string{
	ModeSilent:      "silent",
	ModeAudioManual: "audio_manual",
	ModeAudioAuto:   "audio_auto",
}

// Label returns the human readable mode name
func (m ReadingMode) Label() string {
	if l, ok := modeLabels[m]; ok {
		return l
	}
	return modeLabels[ModeSilent]
}

// Icon returns the glyph shown on the mode button
func (m ReadingMode) Icon() string {
	if i, ok := modeIcons[m]; ok {
		return i
	}
	return modeIcons[ModeSilent]
}

// String returns the stable key used in callbacks and JSON
func (m ReadingMode) String() string {
	if k, ok := modeKeys[m]; ok {
		return k
	}
	return modeKeys[ModeSilent]
}

// HasAudio reports whether narration controls apply
func (m ReadingMode) HasAudio() bool {
	return m == ModeAudioManual || m == ModeAudioAuto
}

// Next cycles to the following mode in menu order
func (m ReadingMode) Next() ReadingMode {
	for i, mode := range ReadingModes {
		if mode == m {
			return ReadingModes[(i+1)%len(ReadingModes)]
		}
	}
	return ModeSilent
}

// ParseReadingMode converts a mode key back into a ReadingMode
func ParseReadingMode(s string) (ReadingMode, bool) {
	for m, k := range modeKeys {
		if k == s {
			return m, true
		}
	}
	return ModeSilent, false
}
