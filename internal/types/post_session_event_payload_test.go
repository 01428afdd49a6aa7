package types_test

import (
	"strings"
	"testing"

	oaerrors "github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-airdrop/internal/types"
)

const account = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"

func invalidFields(t *testing.T, err error) []string {
	t.Helper()

	var composite *oaerrors.CompositeError
	require.ErrorAs(t, err, &composite)

	names := make([]string, 0, len(composite.Errors))
	for _, e := range composite.Errors {
		var v *oaerrors.Validation
		require.ErrorAs(t, e, &v)
		names = append(names, v.Name)
	}
	return names
}

func TestPostSessionEventPayloadValid(t *testing.T) {
	payloads := []types.PostSessionEventPayload{
		{Event: swag.String(types.PostSessionEventPayloadEventChainChanged), ChainID: "0xaa36a7"},
		{Event: swag.String(types.PostSessionEventPayloadEventAccountsChanged), Accounts: []string{account}},
		{Event: swag.String(types.PostSessionEventPayloadEventAccountsChanged), Accounts: []string{}},
	}

	for _, p := range payloads {
		assert.NoError(t, p.Validate(strfmt.Default), swag.StringValue(p.Event))
	}
}

func TestPostSessionEventPayloadInvalid(t *testing.T) {
	err := (&types.PostSessionEventPayload{}).Validate(strfmt.Default)
	assert.Equal(t, []string{"event"}, invalidFields(t, err))

	err = (&types.PostSessionEventPayload{Event: swag.String("disconnect")}).Validate(strfmt.Default)
	assert.Equal(t, []string{"event"}, invalidFields(t, err))

	// enum is case sensitive
	err = (&types.PostSessionEventPayload{Event: swag.String("chainchanged")}).Validate(strfmt.Default)
	assert.Equal(t, []string{"event"}, invalidFields(t, err))

	err = (&types.PostSessionEventPayload{
		Event:    swag.String(types.PostSessionEventPayloadEventAccountsChanged),
		ChainID:  "1",
		Accounts: []string{account, "0x1234"},
	}).Validate(strfmt.Default)
	assert.Equal(t, []string{"accounts.1", "chainId"}, invalidFields(t, err))
}

func TestPostSessionEventPayloadMaxAccounts(t *testing.T) {
	accounts := strings.Split(strings.Repeat(account+",", 33), ",")[:33]

	err := (&types.PostSessionEventPayload{
		Event:    swag.String(types.PostSessionEventPayloadEventAccountsChanged),
		Accounts: accounts,
	}).Validate(strfmt.Default)
	assert.Equal(t, []string{"accounts"}, invalidFields(t, err))
}

func TestPostSessionEventPayloadBinary(t *testing.T) {
	in := types.PostSessionEventPayload{Event: swag.String("chainChanged"), ChainID: "0x1"}

	b, err := in.MarshalBinary()
	require.NoError(t, err)

	var out types.PostSessionEventPayload
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)
}

func TestHTTPValidationErrorDetailRequiresFields(t *testing.T) {
	err := (&types.HTTPValidationErrorDetail{Key: swag.String("chainId")}).Validate(strfmt.Default)
	assert.Equal(t, []string{"error", "in"}, invalidFields(t, err))

	assert.NoError(t, (&types.HTTPValidationErrorDetail{
		Key:   swag.String("chainId"),
		In:    swag.String("body"),
		Error: swag.String("required"),
	}).Validate(strfmt.Default))
}
