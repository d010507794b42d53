package controller

import (
	"strconv"
	"sync/atomic"
	"time"
)

var idCounter atomic.Uint64

// generateTimeBasedId returns a short id that sorts by creation time and stays
// unique within the process.
func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + strconv.FormatUint(idCounter.Add(1), 36)
}
