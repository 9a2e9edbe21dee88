package iso8583

import (
	"fmt"
	"strconv"
)

// Well-known message type indicators.
const (
	MTIFinancialRequest  = "0200"
	MTIFinancialResponse = "0210"
	MTIReversalRequest   = "0400"
	MTIReversalResponse  = "0410"
	MTINetworkRequest    = "0800"
	MTINetworkResponse   = "0810"
)

// ValidMTI reports whether s is a 4-digit message type indicator.
func ValidMTI(s string) bool {
	return len(s) == 4 && checkDigits(s) == nil
}

// ResponseMTI derives the response indicator for a request: the function
// code advances by one, so 0200 answers 0210, 0400 answers 0410 and 0800
// answers 0810.
func ResponseMTI(req string) (string, error) {
	if !ValidMTI(req) {
		return "", fmt.Errorf("invalid MTI %q", req)
	}
	v, _ := strconv.Atoi(req)
	v += 10
	if v > 9999 {
		return "", fmt.Errorf("MTI %q has no response form", req)
	}
	return fmt.Sprintf("%04d", v), nil
}

// IsResponseMTI reports whether the function digit marks a response (odd
// third digit, as in 0210, 0410, 0810).
func IsResponseMTI(s string) bool {
	return ValidMTI(s) && (s[2]-'0')%2 == 1
}

// IsNetworkMTI reports whether the message class is network management.
func IsNetworkMTI(s string) bool {
	return ValidMTI(s) && s[1] == '8'
}
