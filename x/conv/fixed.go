package conv

// Fixed renders v/scale rounded to two decimals, for example
// Fixed(buf, -1251, 1000) is "-1.25". scale must be positive.
func Fixed(buf []byte, v, scale int64) []byte {
	neg := v < 0
	if neg {
		v = -v
	}
	cents := (v*100 + scale/2) / scale

	var frac [2]byte
	frac[0] = byte('0' + cents/10%10)
	frac[1] = byte('0' + cents%10)

	i := len(buf)
	if i < 2 {
		return buf[i:]
	}
	i -= 2
	copy(buf[i:], frac[:])
	if i == 0 {
		return buf
	}
	i--
	buf[i] = '.'
	whole := Utoa(buf[:i], uint64(cents/100))
	i -= len(whole)
	if neg && cents != 0 && i > 0 {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}
