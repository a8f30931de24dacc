package entity

// Progress is a snapshot of one transfer. Total is -1 and Indeterminate is set
// when the byte count is not known in advance.
type Progress struct {
	TaskID        string `json:"task_id"`
	State         string `json:"state"`
	Loaded        int64  `json:"loaded"`
	Total         int64  `json:"total"`
	Indeterminate bool   `json:"indeterminate"`
}

// Fraction returns progress in [0, 1], or -1 when indeterminate.
func (p Progress) Fraction() float64 {
	if p.Indeterminate || p.Total <= 0 {
		return -1
	}

	if p.Loaded >= p.Total {
		return 1
	}

	return float64(p.Loaded) / float64(p.Total)
}
