package ribltsync

import "io"

type pipeStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (s *pipeStream) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *pipeStream) Write(p []byte) (int, error) { return s.w.Write(p) }

// Close closes both directions of the stream. The peer gets io.EOF on reads and
// io.ErrClosedPipe on writes.
func (s *pipeStream) Close() error {
	s.r.Close()
	return s.w.Close()
}

// Pipe creates a synchronous in-memory bidirectional stream. Data written to one of the
// returned streams can be read from the other one.
func Pipe() (io.ReadWriteCloser, io.ReadWriteCloser) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	return &pipeStream{r: r1, w: w2}, &pipeStream{r: r2, w: w1}
}
