package domain

// WordStatus is the study state of one vocabulary word for one user.
type WordStatus string

const (
	WordToLearn  WordStatus = "to_learn"
	WordLearning WordStatus = "learning"
	WordLearned  WordStatus = "learned"
)

// Next advances the closed cycle to_learn -> learning -> learned -> to_learn.
// Unknown values restart the cycle.
func (s WordStatus) Next() WordStatus {
	switch s {
	case WordToLearn:
		return WordLearning
	case WordLearning:
		return WordLearned
	default:
		return WordToLearn
	}
}

func (s WordStatus) Default() WordStatus { return WordToLearn }

func (s WordStatus) Terminal() bool { return s == WordLearned }

func (s WordStatus) Valid() bool {
	return s == WordToLearn || s == WordLearning || s == WordLearned
}

// TrackStatus is the progress state of a tip or topic.
type TrackStatus string

const (
	TrackUnseen     TrackStatus = "unseen"
	TrackInProgress TrackStatus = "in_progress"
	TrackDone       TrackStatus = "done"
)

// Next advances the closed cycle unseen -> in_progress -> done -> unseen.
func (s TrackStatus) Next() TrackStatus {
	switch s {
	case TrackUnseen:
		return TrackInProgress
	case TrackInProgress:
		return TrackDone
	default:
		return TrackUnseen
	}
}

func (s TrackStatus) Default() TrackStatus { return TrackUnseen }

func (s TrackStatus) Terminal() bool { return s == TrackDone }

func (s TrackStatus) Valid() bool {
	return s == TrackUnseen || s == TrackInProgress || s == TrackDone
}

// ProgressKind names a group of trackable entities stored per user.
type ProgressKind string

const (
	KindWords  ProgressKind = "words"
	KindTips   ProgressKind = "tips"
	KindTopics ProgressKind = "topics"
)

// ParseTrackKind accepts the kinds tracked with TrackStatus.
func ParseTrackKind(raw string) (ProgressKind, error) {
	k := ProgressKind(raw)
	if k != KindTips && k != KindTopics {
		return "", ErrInvalidStatus
	}
	return k, nil
}
