package stack

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const synthesized = `{
  "AWSTemplateFormatVersion": "2010-09-09",
  "Description": "sample",
  "Parameters": {
    "CodeKey": {"Type": "String", "Description": "object key"}
  },
  "Resources": {
    "Vpc": {
      "Type": "AWS::EC2::VPC",
      "Properties": {
        "CidrBlock": "10.0.0.0/16",
        "Tags": [{"Key": "Name", "Value": "demo"}]
      }
    },
    "SubnetB": {
      "Type": "AWS::EC2::Subnet",
      "DependsOn": ["Vpc"],
      "Properties": {
        "VpcId": {"Ref": "Vpc"},
        "AvailabilityZone": {"Fn::Select": [1, {"Fn::GetAZs": ""}]},
        "CidrBlock": "10.0.0.16/28"
      }
    },
    "SubnetA": {
      "Type": "AWS::EC2::Subnet",
      "Properties": {
        "VpcId": {"Ref": "Vpc"},
        "AvailabilityZone": {"Fn::Select": [0, {"Fn::GetAZs": ""}]},
        "CidrBlock": "10.0.0.0/28"
      }
    },
    "Listener": {
      "Type": "AWS::ElasticLoadBalancingV2::Listener",
      "Properties": {"Port": 80, "Weight": 0.5}
    }
  },
  "Outputs": {
    "VpcId": {"Description": "vpc", "Value": {"Ref": "Vpc"}}
  }
}`

func sampleTemplate(t *testing.T) *Template {
	t.Helper()
	tmpl, err := Decode([]byte(synthesized))
	require.NoError(t, err)
	return tmpl
}

func TestDecode_NormalizesNumbers(t *testing.T) {
	tmpl := sampleTemplate(t)

	listener, ok := tmpl.Resource("Listener")
	require.True(t, ok)
	assert.Equal(t, 80, listener.Properties["Port"])
	assert.Equal(t, 0.5, listener.Properties["Weight"])

	subnet, _ := tmpl.Resource("SubnetB")
	sel := subnet.Properties["AvailabilityZone"].(map[string]any)["Fn::Select"].([]any)
	assert.Equal(t, 1, sel[0])
	assert.Equal(t, []string{"Vpc"}, subnet.DependsOn)
	assert.Equal(t, "String", tmpl.Parameters["CodeKey"].Type)
}

func TestDecode_Rejects(t *testing.T) {
	for name, in := range map[string]string{
		"not json":     "Resources: {}",
		"no resources": `{"Description": "x"}`,
	} {
		_, err := Decode([]byte(in))
		assert.Error(t, err, name)
	}
}

func TestIDsOfType(t *testing.T) {
	tmpl := sampleTemplate(t)
	assert.Equal(t, []string{"SubnetA", "SubnetB"}, tmpl.IDsOfType("AWS::EC2::Subnet"))
	assert.Equal(t, []string{"Listener", "SubnetA", "SubnetB", "Vpc"}, tmpl.LogicalIDs())
}

func TestReferences(t *testing.T) {
	props := map[string]any{
		"VpcId":   Ref("Vpc"),
		"Region":  Ref("AWS::Region"),
		"RoleArn": GetAtt("Role", "Arn"),
		"Short":   map[string]any{"Fn::GetAtt": "Bucket.Arn"},
		"Uri":     map[string]any{"Fn::Sub": "arn:${AWS::Partition}:lambda:${AWS::Region}:${Fn.Arn}/${Api}"},
		"Join": map[string]any{"Fn::Join": []any{"", []any{
			"arn:", Ref("AWS::Partition"), ":s3:::", Ref("Data"),
		}}},
		"List": []any{Ref("Subnet1"), map[string]any{"Nested": Ref("Subnet2")}},
	}
	assert.Equal(t, []string{"Api", "Bucket", "Data", "Fn", "Role", "Subnet1", "Subnet2", "Vpc"}, References(props))
}

func TestMarshal_JSONIsDeterministic(t *testing.T) {
	a, err := sampleTemplate(t).Marshal(FormatJSON)
	require.NoError(t, err)
	b, err := sampleTemplate(t).Marshal(FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(a, &decoded))
	assert.Equal(t, FormatVersion, decoded["AWSTemplateFormatVersion"])
	assert.NotContains(t, decoded, "Conditions")
}

func TestMarshal_RoundTripsThroughDecode(t *testing.T) {
	body, err := sampleTemplate(t).Body()
	require.NoError(t, err)

	again, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, sampleTemplate(t), again)
}

func TestMarshal_YAML(t *testing.T) {
	data, err := sampleTemplate(t).Marshal(FormatYAML)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	resources := decoded["Resources"].(map[string]any)
	subnet := resources["SubnetA"].(map[string]any)
	props := subnet["Properties"].(map[string]any)
	assert.Equal(t, map[string]any{"Ref": "Vpc"}, props["VpcId"])
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("toml")
	assert.Error(t, err)
}
