package retry

import (
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
)

const grpcStatusHeader = "grpc-status"

// IsGRPC reports whether the request headers describe a gRPC call.
func IsGRPC(h http.Header) bool {
	return strings.HasPrefix(h.Get("Content-Type"), "application/grpc")
}

// GRPCStatus extracts the gRPC status code from a response. The status
// normally arrives in the trailers; trailers-only responses carry it in the
// headers instead.
func GRPCStatus(resp *http.Response) (codes.Code, bool) {
	v := resp.Trailer.Get(grpcStatusHeader)
	if v == "" {
		v = resp.Header.Get(grpcStatusHeader)
	}
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return codes.Code(n), true
}
