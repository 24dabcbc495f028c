package course

// CourseOutline is the chapter/topic tree derived from one document.
type CourseOutline struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Chapters []Chapter `json:"chapters"`
}

type Chapter struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Topics []Topic `json:"topics"`
}

type Topic struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Locked      bool   `json:"locked"`
}

// TopicRef addresses a topic by its position in the outline.
type TopicRef struct {
	Chapter int
	Topic   int
}

// Flatten returns the position of every topic, chapters in order and topics
// in order within each chapter.
func (o *CourseOutline) Flatten() []TopicRef {
	if o == nil {
		return nil
	}
	var refs []TopicRef
	for ci := range o.Chapters {
		for ti := range o.Chapters[ci].Topics {
			refs = append(refs, TopicRef{Chapter: ci, Topic: ti})
		}
	}
	return refs
}

// Topic returns a pointer into the outline for ref.
func (o *CourseOutline) Topic(ref TopicRef) *Topic {
	return &o.Chapters[ref.Chapter].Topics[ref.Topic]
}

// FindTopic returns the topic with id and its flattened index, or nil and -1.
func (o *CourseOutline) FindTopic(id string) (*Topic, int) {
	for i, ref := range o.Flatten() {
		if t := o.Topic(ref); t.ID == id {
			return t, i
		}
	}
	return nil, -1
}

// Clone returns a deep copy.
func (o *CourseOutline) Clone() *CourseOutline {
	if o == nil {
		return nil
	}
	out := &CourseOutline{Title: o.Title, Summary: o.Summary, Chapters: make([]Chapter, len(o.Chapters))}
	for i, ch := range o.Chapters {
		out.Chapters[i] = Chapter{ID: ch.ID, Title: ch.Title, Topics: append([]Topic(nil), ch.Topics...)}
	}
	return out
}

// TopicCount is the size of the flattened topic sequence.
func (o *CourseOutline) TopicCount() int {
	return len(o.Flatten())
}

// Document is an uploaded source file.
type Document struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

func (d *Document) Empty() bool { return d == nil || len(d.Data) == 0 }
