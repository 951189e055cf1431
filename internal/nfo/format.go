package nfo

// Format adapts one sidecar dialect: how to recognize it and where its
// title and description live.
type Format interface {
	Name() string
	Detect(root *Element) bool
	ExtractText(root *Element) (title, description string)
	WriteText(root *Element, title, description string)
}

// detectionOrder tests the structurally specific dialect first: an Emby
// file may reuse Kodi root tags, distinguished only by its overview
// element.
var detectionOrder = []Format{embyFormat{}, kodiFormat{}}

// ForName returns the adapter registered under name, or nil.
func ForName(name string) Format {
	for _, f := range detectionOrder {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// Detect returns the first adapter accepting the entry, or nil when no
// dialect matches.
func Detect(root *Element) Format {
	for _, f := range detectionOrder {
		if f.Detect(root) {
			return f
		}
	}
	return nil
}

// Select resolves the adapter for an entry. A configured dialect wins
// when it accepts the entry; otherwise detection falls back to the
// ordered pass, so a misconfigured dialect never blocks processing.
func Select(root *Element, configured string) Format {
	if configured != "" {
		if f := ForName(configured); f != nil && f.Detect(root) {
			return f
		}
	}
	return Detect(root)
}

type kodiFormat struct{}

func (kodiFormat) Name() string { return "kodi" }

func (kodiFormat) Detect(root *Element) bool {
	return root.Name == "tvshow" || root.Name == "episodedetails"
}

func (kodiFormat) ExtractText(root *Element) (string, string) {
	var title, description string
	if e := root.Find("title"); e != nil {
		title = e.Text()
	}
	if e := root.Find("plot"); e != nil {
		description = e.Text()
	}
	return title, description
}

// WriteText only touches elements that already exist. A sidecar without
// a plot stays without one.
func (kodiFormat) WriteText(root *Element, title, description string) {
	if e := root.Find("title"); e != nil {
		e.SetText(title)
	}
	if e := root.Find("plot"); e != nil {
		e.SetText(description)
	}
}

type embyFormat struct{}

func (embyFormat) Name() string { return "emby" }

func (embyFormat) Detect(root *Element) bool {
	switch root.Name {
	case "series", "episode":
		return true
	case "tvshow", "episodedetails":
		return root.Find("overview") != nil
	}
	return false
}

func (embyFormat) ExtractText(root *Element) (string, string) {
	var title, description string
	if e := root.Find("title"); e != nil {
		title = e.Text()
	}
	if e := root.Find("overview"); e != nil {
		description = e.Text()
	} else if e := root.Find("plot"); e != nil {
		description = e.Text()
	}
	return title, description
}

func (embyFormat) WriteText(root *Element, title, description string) {
	if e := root.Find("title"); e != nil {
		e.SetText(title)
	}
	if e := root.Find("overview"); e != nil {
		e.SetText(description)
	} else if e := root.Find("plot"); e != nil {
		e.SetText(description)
	}
}
