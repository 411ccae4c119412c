package m24c32

import "math"

// Stats counts transaction outcomes per category. It is never reset by the
// driver.
type Stats struct {
	// Exists is false until Init succeeds and after Init fails.
	Exists bool `yaml:"exists"`
	// ErrorVal is the status of the last tallied outcome.
	ErrorVal Status `yaml:"error_val"`

	TotalErrorCount      uint64 `yaml:"total_error_count"`
	SuccessfulCount      uint64 `yaml:"successful_count"`
	DataLenErrorCount    uint64 `yaml:"data_len_error_count"`
	TimeoutCount         uint64 `yaml:"timeout_count"`
	RcvAddrNACKCount     uint64 `yaml:"rcv_addr_nack_count"`
	RcvDataNACKCount     uint64 `yaml:"rcv_data_nack_count"`
	ArbitrationLostCount uint64 `yaml:"arbitration_lost_count"`
	BufferOverflowCount  uint64 `yaml:"buffer_overflow_count"`
	IncompleteWriteCount uint64 `yaml:"incomplete_write_count"`
	MisuseCount          uint64 `yaml:"misuse_count"`
	OtherErrorCount      uint64 `yaml:"other_error_count"`
	UnknownErrorCount    uint64 `yaml:"unknown_error_count"`
}

func sat(c *uint64) {
	if *c < math.MaxUint64 {
		*c++
	}
}

// tally books one outcome: exactly one category counter, plus the total
// for failures.
func (s *Stats) tally(st Status) {
	if st != StatusOK {
		sat(&s.TotalErrorCount)
	}
	s.ErrorVal = st

	switch st {
	case StatusOK:
		sat(&s.SuccessfulCount)
	case StatusDataTooLong:
		sat(&s.DataLenErrorCount)
	case StatusTimeout:
		sat(&s.TimeoutCount)
	case StatusAddrNACK:
		sat(&s.RcvAddrNACKCount)
	case StatusDataNACK:
		sat(&s.RcvDataNACKCount)
	case StatusArbLost:
		sat(&s.ArbitrationLostCount)
	case StatusBufferOverflow:
		sat(&s.BufferOverflowCount)
	case StatusOther, StatusSlaveTX, StatusSlaveRX:
		sat(&s.OtherErrorCount)
	case StatusWriteIncomplete:
		sat(&s.IncompleteWriteCount)
	case StatusMisuse:
		sat(&s.MisuseCount)
	default:
		sat(&s.UnknownErrorCount)
	}
}
