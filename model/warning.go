package model

import "fmt"

// WarningCode classifies a conversion warning.
type WarningCode string

const (
	WarnStyleFallback      WarningCode = "style-fallback"
	WarnStyleCycle         WarningCode = "style-cycle"
	WarnDroppedElement     WarningCode = "dropped-element"
	WarnTrackedChange      WarningCode = "tracked-change"
	WarnAuxiliaryPart      WarningCode = "auxiliary-part"
	WarnMissingMedia       WarningCode = "missing-media"
	WarnImageSplit         WarningCode = "image-split"
	WarnHeaderVariant      WarningCode = "header-variant"
	WarnUnsupportedImage   WarningCode = "unsupported-image-source"
	WarnLinkDropped        WarningCode = "link-target-dropped"
	WarnUnrenderableBlock  WarningCode = "unrenderable-block"
	WarnInvalidImage       WarningCode = "invalid-image"
	WarnUnsupportedFeature WarningCode = "unsupported-feature"
)

// Warning is a soft conversion issue: the result was produced but lost or
// approximated something.
type Warning struct {
	Code     WarningCode
	Location string // part name or element path
	Message  string
}

// Warnf creates a warning with a formatted message.
func Warnf(code WarningCode, location, format string, args ...any) Warning {
	return Warning{Code: code, Location: location, Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	if w.Location == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Code, w.Location, w.Message)
}
