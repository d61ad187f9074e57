package types

const (
	DefaultKeepDevelop = 10
	DefaultKeepMaster  = 10
	DefaultKeepFeature = 1
)

type RetentionPolicy struct {
	KeepDevelop int
	KeepMaster  int
	KeepFeature int
}

func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		KeepDevelop: DefaultKeepDevelop,
		KeepMaster:  DefaultKeepMaster,
		KeepFeature: DefaultKeepFeature,
	}
}

// RepositoryReport summarises the evaluation of one repository.
type RepositoryReport struct {
	Repository     string
	ImageCount     int
	Plan           DeletionPlan
	Deleted        int
	Failed         int
	Skipped        bool
	BranchesLoaded bool
	Err            error
}
