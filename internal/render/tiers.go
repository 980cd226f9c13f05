package render

import "strings"

// Tier groups resources in the diagram.
type Tier string

const (
	TierNetwork  Tier = "network"
	TierSecurity Tier = "security"
	TierEdge     Tier = "edge"
	TierCompute  Tier = "compute"
	TierIdentity Tier = "identity"
	TierStorage  Tier = "storage"
	TierAuth     Tier = "auth"
	TierData     Tier = "data"
	TierTransfer Tier = "transfer"
)

var tierOrder = []Tier{TierEdge, TierNetwork, TierSecurity, TierCompute, TierIdentity, TierStorage, TierAuth, TierData, TierTransfer}

var tierLabels = map[Tier]string{
	TierNetwork:  "Network",
	TierSecurity: "Security groups",
	TierEdge:     "Edge",
	TierCompute:  "Compute",
	TierIdentity: "Identity",
	TierStorage:  "Storage",
	TierAuth:     "Auth",
	TierData:     "Document store",
	TierTransfer: "File transfer",
}

// TierColor is the fill and stroke of a tier container.
type TierColor struct {
	Fill   string
	Stroke string
}

var tierColors = map[Tier]TierColor{
	TierNetwork:  {Fill: "#E0F2FE", Stroke: "#0284C7"},
	TierSecurity: {Fill: "#FEE2E2", Stroke: "#DC2626"},
	TierEdge:     {Fill: "#FFF7ED", Stroke: "#EA580C"},
	TierCompute:  {Fill: "#DCFCE7", Stroke: "#16A34A"},
	TierIdentity: {Fill: "#F3F4F6", Stroke: "#6B7280"},
	TierStorage:  {Fill: "#FEF9C3", Stroke: "#CA8A04"},
	TierAuth:     {Fill: "#E0E7FF", Stroke: "#4F46E5"},
	TierData:     {Fill: "#EDE9FE", Stroke: "#7C3AED"},
	TierTransfer: {Fill: "#DBEAFE", Stroke: "#2563EB"},
}

// TierOf places a resource type in its tier.
func TierOf(resourceType string) Tier {
	parts := strings.Split(resourceType, "::")
	if len(parts) < 3 {
		return TierNetwork
	}
	switch parts[1] {
	case "EC2":
		if strings.HasPrefix(parts[2], "SecurityGroup") {
			return TierSecurity
		}
		return TierNetwork
	case "ElasticLoadBalancingV2":
		return TierEdge
	case "ECS":
		return TierCompute
	case "IAM":
		return TierIdentity
	case "S3":
		return TierStorage
	case "Lambda", "ApiGateway", "Logs":
		return TierAuth
	case "DocDB", "SecretsManager":
		return TierData
	case "Transfer":
		return TierTransfer
	default:
		return TierNetwork
	}
}

// plumbing types are hidden at the minimal detail level.
var plumbing = map[string]bool{
	"AWS::EC2::SubnetRouteTableAssociation":       true,
	"AWS::EC2::Route":                             true,
	"AWS::EC2::VPCGatewayAttachment":              true,
	"AWS::EC2::SecurityGroupIngress":              true,
	"AWS::Lambda::Permission":                     true,
	"AWS::ApiGateway::Method":                     true,
	"AWS::ApiGateway::Resource":                   true,
	"AWS::SecretsManager::SecretTargetAttachment": true,
}
