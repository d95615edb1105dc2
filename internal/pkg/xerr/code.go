package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode      = 40000 // 无效的请求参数
	ValidationFailedCode   = 40001 // 参数验证失败
	FileTooLargeCode       = 40003 // 文件过大
	UnsupportedMediaCode   = 40004 // 不支持的音频类型
	InvalidEncryptionCode  = 40005 // 加密元数据不合法
	AudioTooLongCode       = 40006 // 录音时长超出限制
	InvalidShareOptionCode = 40007 // 分享参数超出范围

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 邮箱或密码错误
	AccessKeyRequiredCode  = 40103 // 分享链接需要访问密钥，或密钥不正确

	// --- 权限错误系列 (403xx) ---
	PermissionDeniedCode = 40301 // 权限不足 (细分)
	ShareExpiredCode     = 40304 // 分享链接已过期
	ShareMaxPlaysCode    = 40305 // 播放次数已用完
	ShareRevokedCode     = 40306 // 分享链接已被撤销

	// --- 资源未找到错误系列 (404xx) ---
	UserNotFoundCode    = 40401 // 用户不存在
	ShareNotFoundCode   = 40404 // 分享链接不存在
	SnippetNotFoundCode = 40407 // 录音不存在

	// --- 业务逻辑冲突系列 (409xx) ---
	EmailAlreadyExistsCode = 40901 // 邮箱已存在

	// --- 限流 (429xx) ---
	TooManyRequestsCode = 42900

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败（如MinIO）
)
