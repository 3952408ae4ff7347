package session

import "encoding/json"

// Snapshot is the resumable subset of session state persisted to the
// local session store after every mutation while InProgress.
type Snapshot struct {
	Answers      map[string]string `json:"answers"`
	CurrentIndex int               `json:"current_index"`
	Timing       *Timing           `json:"timing,omitempty"`
}

// Key builds the store key for one (assessment, user) pair.
func Key(assessmentID, userID string) string {
	return assessmentID + ":" + userID
}

// Encode serializes the snapshot to its stored text form.
func (s Snapshot) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeSnapshot parses a stored snapshot.
func DecodeSnapshot(data string) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.Answers == nil {
		snap.Answers = make(map[string]string)
	}
	return snap, nil
}
