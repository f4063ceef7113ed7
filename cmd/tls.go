package main

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrTLS marks unusable certificate material.
var ErrTLS = errors.New("tls setup failed")

// loadTLSConfig reads the server key pair. When caFile exists, every
// certificate in it is appended to the served chain.
func loadTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTLS, err)
	}

	if caFile != "" {
		chain, err := readCertificates(caFile)
		if err != nil {
			return nil, err
		}
		cert.Certificate = append(cert.Certificate, chain...)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// readCertificates returns the DER blocks of every CERTIFICATE in path. A
// missing file yields none.
func readCertificates(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTLS, err)
	}

	var chain [][]byte
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			chain = append(chain, block.Bytes)
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: %s holds no certificates", ErrTLS, path)
	}
	return chain, nil
}
