package shared

// Permission names used by rbac route guards. Seeded by scripts/seed.
const (
	PermVehicleView   = "inventory.vehicle.view"
	PermVehicleCreate = "inventory.vehicle.create"
	PermVehicleEdit   = "inventory.vehicle.edit"
	PermVehicleDelete = "inventory.vehicle.delete"

	PermWarehouseView   = "masterdata.warehouse.view"
	PermWarehouseManage = "masterdata.warehouse.manage"
	PermModelView       = "masterdata.model.view"
	PermModelManage     = "masterdata.model.manage"

	PermTransferView   = "transfers.view"
	PermTransferCreate = "transfers.create"

	PermCustomerView   = "sales.customer.view"
	PermCustomerManage = "sales.customer.manage"
	PermSaleView       = "sales.sale.view"
	PermSaleCreate     = "sales.sale.create"
	PermSaleVoid       = "sales.sale.void"

	PermAgentView   = "agents.view"
	PermAgentManage = "agents.manage"
	PermLedgerView  = "agents.ledger.view"
	PermLedgerPost  = "agents.ledger.post"

	PermReportView  = "reports.view"
	PermMediaUpload = "media.upload"
	PermOCRUse      = "ocr.use"
	PermAuditView   = "audit.view"
	PermUserManage  = "users.manage"
)
