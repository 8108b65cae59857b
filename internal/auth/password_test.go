package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := h.Hash("longpassword1")
	require.NoError(t, err)
	require.NotEqual(t, "longpassword1", hashed)

	require.NoError(t, h.Compare(hashed, "longpassword1"))
	require.Error(t, h.Compare(hashed, "longpassword2"))
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
	require.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).Cost)
	require.Equal(t, 12, NewBcryptHasher(12).Cost)
}
