package notebook

import "regexp"

// attachmentMarker matches inline attachment references such as
// ![plot](attachment:plot.png). It is greedy within a line, so two markers on
// one line count as one.
var attachmentMarker = regexp.MustCompile(`!\[.+]\(attachment:.+\)`)

// Segment is a piece of text-cell source with the attachment payload that
// follows it, if any.
type Segment struct {
	Text     string
	Image    string // base64 payload; valid only when HasImage is true
	HasImage bool
}

// ResolveAttachments splits source at every attachment marker and pairs
// segment i with attachments[i]. Pairing is positional: the name inside the
// marker is not consulted. Segments past the last attachment carry no image
// and attachments past the last segment are dropped.
func ResolveAttachments(source string, attachments []string) []Segment {
	if len(attachments) == 0 {
		return []Segment{{Text: source}}
	}
	parts := attachmentMarker.Split(source, -1)
	segs := make([]Segment, len(parts))
	for i, part := range parts {
		segs[i].Text = part
		if i < len(attachments) {
			segs[i].Image = attachments[i]
			segs[i].HasImage = true
		}
	}
	return segs
}
