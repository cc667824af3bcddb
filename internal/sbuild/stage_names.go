package sbuild

// StageName is a strongly-typed identifier for a pipeline stage. All
// canonical stages are declared as constants here for compile-time safety.
type StageName string

// Canonical stage names, in execution order.
const (
	StageProvisionChroot StageName = "provision_chroot"
	StageBuildSource     StageName = "build_source"
	StageBuildBinary     StageName = "build_binary"
	StageLocateArtifacts StageName = "locate_artifacts"
	StageWriteManifest   StageName = "write_manifest"
)

// StageDef pairs a stage name with its executing function (internal wiring helper).
type StageDef struct {
	Name StageName
	Fn   Stage
}
