package errx

import (
	"context"
	"errors"
	"net/http"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// WrapGraph maps Neo4j driver errors to the unified Error type.
func WrapGraph(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, http.StatusGatewayTimeout, GraphErrorMessage)
	}

	var connErr *neo4j.ConnectivityError
	if errors.As(err, &connErr) {
		return New(err, http.StatusServiceUnavailable, GraphErrorMessage)
	}

	return New(err, http.StatusBadGateway, GraphErrorMessage)
}
