package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFragmentSimpleWrite(t *testing.T) {
	e, err := contract.ParseFragment("function mintTokens(address to, uint256 amount) external")
	require.NoError(t, err)

	assert.Equal(t, "mintTokens", e.Name)
	assert.Equal(t, "function", e.Type)
	assert.Equal(t, "nonpayable", e.StateMutability)
	assert.True(t, e.IsWriteFunction())
	require.Len(t, e.Inputs, 2)
	assert.Equal(t, contract.ABIParam{Name: "to", Type: "address"}, e.Inputs[0])
	assert.Equal(t, contract.ABIParam{Name: "amount", Type: "uint256"}, e.Inputs[1])
	assert.Empty(t, e.Outputs)
}

func TestParseFragmentViewWithNamedOutputs(t *testing.T) {
	e, err := contract.ParseFragment("function getTokenInfo() external view returns (string memory tokenName, string memory tokenSymbol)")
	require.NoError(t, err)

	assert.True(t, e.IsReadFunction())
	assert.Empty(t, e.Inputs)
	require.Len(t, e.Outputs, 2)
	assert.Equal(t, "tokenName", e.Outputs[0].Name)
	assert.Equal(t, "string", e.Outputs[1].Type)
}

func TestParseFragmentUnnamedOutput(t *testing.T) {
	e, err := contract.ParseFragment("function name() public view returns (string memory)")
	require.NoError(t, err)
	require.Len(t, e.Outputs, 1)
	assert.Equal(t, contract.ABIParam{Type: "string"}, e.Outputs[0])
}

func TestParseFragmentTupleOutput(t *testing.T) {
	e, err := contract.ParseFragment("function getVestingSchedule(address _beneficiary) external view returns (tuple(uint256 totalAmount, uint256 releasedAmount, uint256 startTime, uint256 cliffDuration, uint256 vestingDuration))")
	require.NoError(t, err)

	require.Len(t, e.Outputs, 1)
	out := e.Outputs[0]
	assert.Equal(t, "tuple", out.Type)
	require.Len(t, out.Components, 5)
	assert.Equal(t, "totalAmount", out.Components[0].Name)
	assert.Equal(t, "vestingDuration", out.Components[4].Name)
}

func TestParseFragmentBareTupleAndArrays(t *testing.T) {
	e, err := contract.ParseFragment("batch((address who, uint amount)[] items, bytes32[2] salts) payable")
	require.NoError(t, err)

	assert.Equal(t, "payable", e.StateMutability)
	require.Len(t, e.Inputs, 2)
	assert.Equal(t, "tuple[]", e.Inputs[0].Type)
	assert.Equal(t, "uint256", e.Inputs[0].Components[1].Type, "uint expands to uint256")
	assert.Equal(t, "bytes32[2]", e.Inputs[1].Type)
	assert.Equal(t, "batch((address,uint256)[],bytes32[2])", e.Signature())
}

func TestParseFragmentReturnsWithoutSpace(t *testing.T) {
	e, err := contract.ParseFragment("function symbol() view returns(string)")
	require.NoError(t, err)
	require.Len(t, e.Outputs, 1)
}

func TestParseFragmentErrors(t *testing.T) {
	bad := []string{
		"",
		"function",
		"function (address a)",
		"function f(address a",
		"function f(address a) returns",
		"function f(address a) frobnicate",
		"function f(address a b)",
		"function f(add-ress a)",
		"function f(address a,)",
	}
	for _, sig := range bad {
		_, err := contract.ParseFragment(sig)
		assert.ErrorIs(t, err, contract.ErrBadFragment, sig)
	}
}

func TestParseFragmentsStopsAtFirstError(t *testing.T) {
	_, err := contract.ParseFragments([]string{"function ok() external", "nonsense"})
	assert.ErrorIs(t, err, contract.ErrBadFragment)
}

func TestMustParseFragmentsPanics(t *testing.T) {
	assert.Panics(t, func() { contract.MustParseFragments("broken(") })
}
