package hexconv

// Invalid is the value of Halfbyte for characters that aren't hex digits.
const Invalid = 0xFF

// Halfbyte maps a hex digit character onto its value. Any other character maps onto
// Invalid.
var Halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = Invalid
	}

	for c := '0'; c <= '9'; c++ {
		table[c] = byte(c - '0')
	}

	for c := 'a'; c <= 'f'; c++ {
		table[c] = byte(c-'a') + 0xa
		table[c-'a'+'A'] = byte(c-'a') + 0xa
	}

	return table
}()
