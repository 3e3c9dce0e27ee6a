package object

// Operation records one snapshot transition in the append-only operation
// log. It points at the encoded view the transition produced and is used
// for audit listing only.
type Operation struct {
	ID          OperationID   `json:"-"`
	Parents     []OperationID `json:"parents"`
	View        ViewID        `json:"view"`
	Description string        `json:"description"`
	When        int64         `json:"when"`
}

// ComputeID hashes the operation's encoded fields.
func (o *Operation) ComputeID() (OperationID, error) {
	sum, err := hashJSON(o)
	if err != nil {
		return "", err
	}
	return OperationID(sum), nil
}
