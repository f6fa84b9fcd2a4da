package chunk

// sizeStack tracks, per open nesting level, the offset at which the next
// sibling chunk is expected to start. Each chunk header moves the top of the
// stack to the end of that chunk; closing a level checks the stream landed
// exactly there.
type sizeStack struct {
	enabled bool
	offsets []int64
}

func (s *sizeStack) push(pos int64) {
	if !s.enabled {
		return
	}
	s.offsets = append(s.offsets, pos)
}

func (s *sizeStack) pop(pos int64, op string) error {
	if !s.enabled || len(s.offsets) == 0 {
		return nil
	}
	want := s.offsets[len(s.offsets)-1]
	s.offsets = s.offsets[:len(s.offsets)-1]
	if pos != want {
		return Errorf(ErrCorruptData, op,
			"corrupted chunk detected: inner chunks end at offset %d, declared end is %d", pos, want)
	}
	return nil
}

// header checks a chunk header starting at pos against the expected sibling
// offset and records where the chunk ends.
func (s *sizeStack) header(id uint16, pos int64, length uint32, op string) error {
	if !s.enabled || len(s.offsets) == 0 {
		return nil
	}
	top := len(s.offsets) - 1
	if pos != s.offsets[top] {
		return Errorf(ErrCorruptData, op,
			"corrupted chunk detected: chunk 0x%04X starts at offset %d, previous chunk declared end %d",
			id, pos, s.offsets[top])
	}
	s.offsets[top] = pos + int64(length)
	return nil
}

// rewind undoes header for a chunk whose header started at pos.
func (s *sizeStack) rewind(pos int64) {
	if !s.enabled || len(s.offsets) == 0 {
		return
	}
	s.offsets[len(s.offsets)-1] = pos
}
