package auth

// Permission constants define the available permissions in the system.
// These are used for role-based access control (RBAC) to restrict access
// to specific resources and actions.
const (
	// PermEmployeeList allows listing employees.
	PermEmployeeList = "employee.list"
	// PermEmployeeCreate allows creating employee records.
	PermEmployeeCreate = "employee.create"
	// PermEmployeeUpdate allows editing employee records.
	PermEmployeeUpdate = "employee.update"
	// PermEmployeeDelete allows deleting employee records.
	PermEmployeeDelete = "employee.delete"

	// PermContractList allows listing contracts.
	PermContractList = "contract.list"
	// PermContractCreate allows creating contracts.
	PermContractCreate = "contract.create"
	// PermContractUpdate allows editing contracts.
	PermContractUpdate = "contract.update"
	// PermContractDelete allows deleting contracts.
	PermContractDelete = "contract.delete"

	// PermPayrollList allows listing payroll runs and payslips.
	PermPayrollList = "payroll.list"
	// PermPayrollCreate allows creating payroll runs.
	PermPayrollCreate = "payroll.create"
	// PermPayrollGenerate allows generating payslips for a run.
	PermPayrollGenerate = "payroll.generate"
	// PermPayrollFinalize allows finalizing a payroll run.
	PermPayrollFinalize = "payroll.finalize"
	// PermPayrollDelete allows deleting draft payroll runs.
	PermPayrollDelete = "payroll.delete"

	// PermJobList allows listing job postings.
	PermJobList = "job.list"
	// PermJobCreate allows creating job postings.
	PermJobCreate = "job.create"
	// PermJobUpdate allows editing job postings.
	PermJobUpdate = "job.update"
	// PermJobDelete allows deleting job postings.
	PermJobDelete = "job.delete"
	// PermJobModerate allows approving/rejecting and toggling job postings.
	PermJobModerate = "job.moderate"

	// PermApplicationList allows listing job applications.
	PermApplicationList = "application.list"
	// PermApplicationUpdate allows editing applications and moving them
	// through the pipeline.
	PermApplicationUpdate = "application.update"
	// PermApplicationDelete allows deleting applications.
	PermApplicationDelete = "application.delete"

	// PermCouponList allows listing coupons.
	PermCouponList = "coupon.list"
	// PermCouponCreate allows creating coupons.
	PermCouponCreate = "coupon.create"
	// PermCouponUpdate allows editing and toggling coupons.
	PermCouponUpdate = "coupon.update"
	// PermCouponDelete allows deleting coupons.
	PermCouponDelete = "coupon.delete"

	// PermMeetingList allows listing meetings.
	PermMeetingList = "meeting.list"
	// PermMeetingCreate allows creating meetings.
	PermMeetingCreate = "meeting.create"
	// PermMeetingUpdate allows editing meetings.
	PermMeetingUpdate = "meeting.update"
	// PermMeetingDelete allows deleting meetings.
	PermMeetingDelete = "meeting.delete"

	// PermSettingsManage allows reading and writing tenant settings
	// (storage and mail configuration).
	PermSettingsManage = "settings.manage"
)
