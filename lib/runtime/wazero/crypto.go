// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"bytes"
	"crypto/ed25519"
	"errors"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/tetratelabs/wazero/api"
)

const (
	signatureSize       = 64
	ecdsaSignatureSize  = 65
	publicKeySize       = 32
	ecdsaPublicKeySize  = 33
	messageHashSize     = 32
	sr25519SigningLabel = "substrate"
)

var (
	errBadRS        = errors.New("invalid r or s")
	errBadV         = errors.New("invalid v")
	errBadSignature = errors.New("invalid signature")
)

// batchVerification records whether a signature verified since the batch
// started is invalid. Signatures are verified as they are submitted.
type batchVerification struct {
	failed bool
}

// readFixed reads size bytes at the pointer given.
func (h *host) readFixed(ptr, size uint32) []byte {
	return h.read(joinPointerSize(ptr, size))
}

// verified returns the result of a signature verification to the runtime,
// which is always true during a batch verification.
func (h *host) verified(ok bool) uint64 {
	if h.batch != nil {
		if !ok {
			h.batch.failed = true
		}
		return api.EncodeU32(1)
	}

	if ok {
		return api.EncodeU32(1)
	}
	return api.EncodeU32(0)
}

func ext_crypto_ed25519_verify_version_1(h *host, stack []uint64) {
	signature := h.readFixed(api.DecodeU32(stack[0]), signatureSize)
	message := h.read(stack[1])
	publicKey := h.readFixed(api.DecodeU32(stack[2]), publicKeySize)

	ok := ed25519.Verify(publicKey, message, signature)
	logger.Tracef("ed25519 signature of public key 0x%x is valid: %t", publicKey, ok)
	stack[0] = h.verified(ok)
}

// ext_crypto_sr25519_verify_version_1 accepts signatures without the
// schnorrkel marker bit.
func ext_crypto_sr25519_verify_version_1(h *host, stack []uint64) {
	stack[0] = h.verified(h.sr25519Verify(stack, true))
}

func ext_crypto_sr25519_verify_version_2(h *host, stack []uint64) {
	stack[0] = h.verified(h.sr25519Verify(stack, false))
}

func (h *host) sr25519Verify(stack []uint64, legacy bool) bool {
	var signatureBytes [signatureSize]byte
	copy(signatureBytes[:], h.readFixed(api.DecodeU32(stack[0]), signatureSize))
	message := h.read(stack[1])
	var publicKeyBytes [publicKeySize]byte
	copy(publicKeyBytes[:], h.readFixed(api.DecodeU32(stack[2]), publicKeySize))

	publicKey, err := schnorrkel.NewPublicKey(publicKeyBytes)
	if err != nil {
		logger.Debugf("invalid sr25519 public key 0x%x: %s", publicKeyBytes, err)
		return false
	}

	signature := new(schnorrkel.Signature)
	if legacy {
		err = signature.DecodeNotDistinguishedFromEd25519(signatureBytes)
	} else {
		err = signature.Decode(signatureBytes)
	}
	if err != nil {
		logger.Debugf("invalid sr25519 signature 0x%x: %s", signatureBytes, err)
		return false
	}

	ok, err := publicKey.Verify(signature, schnorrkel.NewSigningContext([]byte(sr25519SigningLabel), message))
	if err != nil {
		logger.Debugf("verifying sr25519 signature: %s", err)
		return false
	}
	return ok
}

// ext_crypto_ecdsa_verify_version_1 verifies the signature of the blake2
// hash of the message by the compressed public key given.
func ext_crypto_ecdsa_verify_version_1(h *host, stack []uint64) {
	signature := h.readFixed(api.DecodeU32(stack[0]), ecdsaSignatureSize)
	message := h.read(stack[1])
	publicKey := h.readFixed(api.DecodeU32(stack[2]), ecdsaPublicKeySize)

	hash, err := common.Blake2bHash(message)
	if err != nil {
		panic(err)
	}

	recovered, err := recoverPublicKey(signature, hash[:])
	ok := err == nil && bytes.Equal(recovered.SerializeCompressed(), publicKey)
	logger.Tracef("ecdsa signature of public key 0x%x is valid: %t", publicKey, ok)
	stack[0] = h.verified(ok)
}

func ext_crypto_ecdsa_verify_version_2(h *host, stack []uint64) {
	ext_crypto_ecdsa_verify_version_1(h, stack)
}

// ext_crypto_secp256k1_ecdsa_recover_version_1 returns the SCALE encoded
// Result of the 64 bytes uncompressed public key, without its prefix.
func ext_crypto_secp256k1_ecdsa_recover_version_1(h *host, stack []uint64) {
	stack[0] = h.secp256k1Recover(stack, func(publicKey *secp256k1.PublicKey) []byte {
		return publicKey.SerializeUncompressed()[1:]
	})
}

func ext_crypto_secp256k1_ecdsa_recover_version_2(h *host, stack []uint64) {
	ext_crypto_secp256k1_ecdsa_recover_version_1(h, stack)
}

func ext_crypto_secp256k1_ecdsa_recover_compressed_version_1(h *host, stack []uint64) {
	stack[0] = h.secp256k1Recover(stack, func(publicKey *secp256k1.PublicKey) []byte {
		return publicKey.SerializeCompressed()
	})
}

func ext_crypto_secp256k1_ecdsa_recover_compressed_version_2(h *host, stack []uint64) {
	ext_crypto_secp256k1_ecdsa_recover_compressed_version_1(h, stack)
}

func (h *host) secp256k1Recover(stack []uint64, serialize func(*secp256k1.PublicKey) []byte) uint64 {
	signature := h.readFixed(api.DecodeU32(stack[0]), ecdsaSignatureSize)
	hash := h.readFixed(api.DecodeU32(stack[1]), messageHashSize)

	publicKey, err := recoverPublicKey(signature, hash)
	switch {
	case errors.Is(err, errBadRS):
		return h.writeSized([]byte{1, 0})
	case errors.Is(err, errBadV):
		return h.writeSized([]byte{1, 1})
	case err != nil:
		return h.writeSized([]byte{1, 2})
	}
	return h.writeSized(append([]byte{0}, serialize(publicKey)...))
}

// recoverPublicKey recovers the public key from the signature r ++ s ++ v
// of the message hash given.
func recoverPublicKey(signature, hash []byte) (*secp256k1.PublicKey, error) {
	v := signature[64]
	if v >= 27 {
		v -= 27
	}
	if v > 3 {
		return nil, errBadV
	}

	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(signature[:32]) || r.IsZero() || s.SetByteSlice(signature[32:64]) || s.IsZero() {
		return nil, errBadRS
	}

	compact := make([]byte, 0, ecdsaSignatureSize)
	compact = append(compact, 27+v)
	compact = append(compact, signature[:64]...)

	publicKey, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, errBadSignature
	}
	return publicKey, nil
}

func ext_crypto_start_batch_verify_version_1(h *host, _ []uint64) {
	if h.batch != nil {
		panic(errors.New("batch verification already started"))
	}
	h.batch = &batchVerification{}
}

func ext_crypto_finish_batch_verify_version_1(h *host, stack []uint64) {
	if h.batch == nil {
		panic(errors.New("no batch verification started"))
	}
	failed := h.batch.failed
	h.batch = nil

	if failed {
		stack[0] = api.EncodeU32(0)
		return
	}
	stack[0] = api.EncodeU32(1)
}
