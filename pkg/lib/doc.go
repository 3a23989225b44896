// Package lib 包含基础设施工具库
//
// 本目录包含与架构组件无关的通用工具库：
//
//   - crypto: 密钥、签名、PeerID 派生
//   - multiaddr: 多地址格式解析
//   - log: 日志封装
//
// # 与 pkg/ 其他目录的关系
//
//   - interfaces/: 传输栈组件的公共接口
//   - types/: 公共类型定义
//   - protocolids/: 协议 ID 常量
//   - lib/: 基础设施工具库（本目录）
package lib
