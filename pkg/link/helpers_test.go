package link

type fakeClock struct {
	now Millis
}

func (c *fakeClock) NowMillis() Millis {
	return c.now
}

func (c *fakeClock) advance(ms uint32) {
	c.now = c.now.Add(ms)
}

type fakeTransport struct {
	rx []byte
	tx []byte
}

func (t *fakeTransport) RxByte() (byte, bool) {
	if len(t.rx) == 0 {
		return 0, false
	}
	b := t.rx[0]
	t.rx = t.rx[1:]
	return b, true
}

func (t *fakeTransport) TxByte(b byte) error {
	t.tx = append(t.tx, b)
	return nil
}

func (t *fakeTransport) inject(bs ...byte) {
	t.rx = append(t.rx, bs...)
}

func (t *fakeTransport) takeTx() []byte {
	tx := t.tx
	t.tx = nil
	return tx
}

func valueSetFrame(v Value) []byte {
	payload := v.Bytes()
	frame := append([]byte{CmdValueSet}, payload...)
	return AppendChecksum(frame, payload)
}
