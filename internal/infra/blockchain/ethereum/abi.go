package ethereum

import (
	"fmt"
	"math/big"
	"strings"
)

// wordSize is the length of one ABI word in hex characters (32 bytes).
const wordSize = 64

// strip0x removes a leading "0x"/"0X" prefix.
func strip0x(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// addressWord left-pads an address into a full ABI word.
func addressWord(address string) (string, error) {
	hex := strings.ToLower(strip0x(address))
	if len(hex) != 40 {
		return "", fmt.Errorf("malformed address %q", address)
	}
	return strings.Repeat("0", wordSize-40) + hex, nil
}

// uintWord encodes a non-negative integer into a full ABI word.
func uintWord(v *big.Int) (string, error) {
	if v == nil || v.Sign() < 0 {
		return "", fmt.Errorf("uint word requires a non-negative value")
	}

	hex := v.Text(16)
	if len(hex) > wordSize {
		return "", fmt.Errorf("value %s overflows one word", v)
	}
	return strings.Repeat("0", wordSize-len(hex)) + hex, nil
}

// abiValue is one argument of a contract call: either a single static word or
// a dynamic byte string referenced from the head by offset.
type abiValue struct {
	word    string // static: the encoded word
	dynamic bool
	data    string // dynamic: raw hex payload, unpadded
}

func staticValue(word string) abiValue {
	return abiValue{word: word}
}

func bytesValue(hexData string) abiValue {
	return abiValue{dynamic: true, data: strip0x(hexData)}
}

// encodeCall assembles calldata from a 4-byte selector and its arguments,
// laying dynamic arguments out tail-first per the ABI head/tail scheme.
func encodeCall(selector string, args ...abiValue) (string, error) {
	var (
		head strings.Builder
		tail strings.Builder
	)

	headLen := len(args) * wordSize / 2 // bytes occupied by the head words

	for _, arg := range args {
		if !arg.dynamic {
			if len(arg.word) != wordSize {
				return "", fmt.Errorf("static argument is not one word: %q", arg.word)
			}
			head.WriteString(arg.word)
			continue
		}

		offset, err := uintWord(big.NewInt(int64(headLen + tail.Len()/2)))
		if err != nil {
			return "", err
		}
		head.WriteString(offset)

		encoded, err := encodeBytes(arg.data)
		if err != nil {
			return "", err
		}
		tail.WriteString(encoded)
	}

	return "0x" + strip0x(selector) + head.String() + tail.String(), nil
}

// encodeBytes encodes a dynamic byte string: length word followed by the
// payload right-padded to a word boundary.
func encodeBytes(hexData string) (string, error) {
	if len(hexData)%2 != 0 {
		return "", fmt.Errorf("odd-length hex payload")
	}

	length, err := uintWord(big.NewInt(int64(len(hexData) / 2)))
	if err != nil {
		return "", err
	}

	padded := hexData
	if rem := len(padded) % wordSize; rem != 0 {
		padded += strings.Repeat("0", wordSize-rem)
	}

	return length + padded, nil
}

// returnData wraps a hex-encoded eth_call result for word-level decoding.
type returnData struct {
	hex string
}

func newReturnData(result string) returnData {
	return returnData{hex: strip0x(result)}
}

// word returns the i-th 32-byte word, or an error when the data is too short.
func (r returnData) word(i int) (string, error) {
	start := i * wordSize
	if len(r.hex) < start+wordSize {
		return "", fmt.Errorf("return data too short: want word %d, have %d bytes", i, len(r.hex)/2)
	}
	return r.hex[start : start+wordSize], nil
}

// uint decodes the i-th word as an unsigned integer.
func (r returnData) uint(i int) (*big.Int, error) {
	w, err := r.word(i)
	if err != nil {
		return nil, err
	}

	v, ok := new(big.Int).SetString(w, 16)
	if !ok {
		return nil, fmt.Errorf("word %d is not a hex number: %q", i, w)
	}
	return v, nil
}

// address decodes the i-th word as an address (the low 20 bytes).
func (r returnData) address(i int) (string, error) {
	w, err := r.word(i)
	if err != nil {
		return "", err
	}
	return "0x" + w[wordSize-40:], nil
}

// bool decodes the i-th word as a boolean.
func (r returnData) bool(i int) (bool, error) {
	v, err := r.uint(i)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

// addressArrayAt decodes a dynamic address array whose offset is stored in
// the i-th head word.
func (r returnData) addressArrayAt(i int) ([]string, error) {
	offset, err := r.uint(i)
	if err != nil {
		return nil, err
	}

	base := int(offset.Int64()) * 2 / wordSize // offset in words
	length, err := r.uint(base)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, length.Int64())
	for j := 0; j < int(length.Int64()); j++ {
		addr, err := r.address(base + 1 + j)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// stringAt decodes a dynamic string whose offset is stored in the i-th head
// word.
func (r returnData) stringAt(i int) (string, error) {
	offset, err := r.uint(i)
	if err != nil {
		return "", err
	}

	base := int(offset.Int64()) * 2 / wordSize
	length, err := r.uint(base)
	if err != nil {
		return "", err
	}

	start := (base + 1) * wordSize
	end := start + int(length.Int64())*2
	if len(r.hex) < end {
		return "", fmt.Errorf("return data too short for string of %d bytes", length.Int64())
	}

	raw := r.hex[start:end]
	out := make([]byte, len(raw)/2)
	for j := 0; j < len(out); j++ {
		var b byte
		if _, err := fmt.Sscanf(raw[j*2:j*2+2], "%02x", &b); err != nil {
			return "", fmt.Errorf("malformed string payload: %w", err)
		}
		out[j] = b
	}
	return string(out), nil
}
